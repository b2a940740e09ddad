package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/concierge/internal/engine"
	"github.com/MikeSquared-Agency/concierge/internal/hermes"
)

// Recommender is the engine surface the API serves.
type Recommender interface {
	GetRecommendations(ctx context.Context, text string) engine.Result
	Stats() engine.Stats
}

// EventPublisher receives one event per served result.
type EventPublisher interface {
	PublishRecommendationServed(evt hermes.RecommendationServed) error
}

type Server struct {
	router *chi.Mux
	port   int
	engine Recommender
	events EventPublisher // nil: events disabled
	model  string
	logger *slog.Logger
}

// NewServer wires the routes. events may be nil.
func NewServer(port int, eng Recommender, events EventPublisher, model string, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		engine: eng,
		events: events,
		model:  model,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/concierge/status", s.status)
	router.Get("/api/v1/examples", s.examples)
	router.Post("/api/v1/recommendations", s.recommend)
	router.Handle("/metrics", promhttp.Handler())

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	state := "ready"
	if !stats.Loaded {
		state = "loading"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":           "concierge",
		"status":          state,
		"catalog":         stats.Items,
		"language_model":  s.model,
		"embedding_model": stats.EmbeddingModel,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
