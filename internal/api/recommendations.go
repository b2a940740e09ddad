package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/concierge/internal/engine"
	"github.com/MikeSquared-Agency/concierge/internal/hermes"
	"github.com/MikeSquared-Agency/concierge/internal/validation"
)

// Examples are sample requests shown to new users.
var Examples = []string{
	"I'm feeling adventurous with my 3 friends downtown with $50 budget",
	"Date night, romantic mood, $100 budget in the city",
	"Family gathering, relaxed, suburban area, 6 people",
	"Solo relaxation, calm mood, free or cheap activities",
}

const maxBodyBytes = 64 << 10

// RecommendationRequest is the free-text request plus the optional advanced
// options, which are folded into the text before extraction.
type RecommendationRequest struct {
	Text      string   `json:"text"`
	Budget    *float64 `json:"budget,omitempty" validate:"omitempty,gte=0,lte=500"`
	GroupSize *int     `json:"group_size,omitempty" validate:"omitempty,gte=1,lte=20"`
	Location  *string  `json:"location,omitempty" validate:"omitempty,oneof=Downtown Suburban Rural Beach Mountain"`
	Occasion  *string  `json:"occasion,omitempty" validate:"omitempty,oneof='Date Night' 'Family Gathering' 'Friends Hangout' Solo Business Celebration Relaxation"`
}

// Query returns the text the engine sees. A budget of 0 and a group of 1 are
// treated as not specified.
func (r RecommendationRequest) Query() string {
	parts := []string{strings.TrimSpace(r.Text)}
	if r.Budget != nil && *r.Budget > 0 {
		parts = append(parts, fmt.Sprintf("Budget: $%g", *r.Budget))
	}
	if r.GroupSize != nil && *r.GroupSize > 1 {
		parts = append(parts, fmt.Sprintf("Group size: %d people", *r.GroupSize))
	}
	if r.Location != nil {
		parts = append(parts, "Location: "+*r.Location)
	}
	if r.Occasion != nil {
		parts = append(parts, "Occasion: "+*r.Occasion)
	}
	return strings.Join(parts, " ")
}

func (s *Server) examples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"examples": Examples})
}

// recommend handles POST /api/v1/recommendations. Engine error results are
// still 200: they are a state to render, not a transport failure.
func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := engine.ValidateInput(req.Text); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"warning": engine.MsgEmptyInput})
		return
	}
	if err := validation.Struct(req); err != nil {
		var verr *validation.Error
		errors.As(err, &verr)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid options", "details": verr.Fields})
		return
	}

	start := time.Now()
	res := s.engine.GetRecommendations(r.Context(), req.Query())
	s.publish(res, time.Since(start))

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) publish(res engine.Result, took time.Duration) {
	if s.events == nil {
		return
	}
	evt := hermes.RecommendationServed{
		EventID:       uuid.NewString(),
		RequestID:     res.RequestID,
		Status:        string(res.Status),
		Message:       res.Message,
		EstimatedCost: res.EstimatedCost,
		DurationMS:    took.Milliseconds(),
		ServedAt:      time.Now().UTC(),
	}
	if res.Movie != nil {
		evt.MovieID = res.Movie.ID
	}
	if res.Restaurant != nil {
		evt.RestaurantID = res.Restaurant.ID
	}
	if res.Activity != nil {
		evt.ActivityID = res.Activity.ID
	}
	if p := res.Preferences; p != nil {
		if p.Occasion != nil {
			evt.Occasion = string(*p.Occasion)
		}
		if p.GroupSize != nil {
			evt.GroupSize = *p.GroupSize
		}
		if p.Location != nil {
			evt.Location = *p.Location
		}
	}
	if err := s.events.PublishRecommendationServed(evt); err != nil {
		s.logger.Warn("failed to publish recommendation event", "request_id", res.RequestID, "error", err)
	}
}
