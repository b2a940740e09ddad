package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/concierge/internal/anthropic"
	"github.com/MikeSquared-Agency/concierge/internal/api"
	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/config"
	"github.com/MikeSquared-Agency/concierge/internal/cost"
	"github.com/MikeSquared-Agency/concierge/internal/embedding"
	"github.com/MikeSquared-Agency/concierge/internal/engine"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
	"github.com/MikeSquared-Agency/concierge/internal/hermes"
	"github.com/MikeSquared-Agency/concierge/internal/reasoning"
	"github.com/MikeSquared-Agency/concierge/internal/selector"
	"github.com/MikeSquared-Agency/concierge/internal/store"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if err := seed(ctx, cfg); err != nil {
			slog.Error("seed failed", "error", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("concierge starting", "port", cfg.Port)

	// Catalog source: Postgres when configured, otherwise YAML.
	var loader catalog.Loader = catalog.FileLoader{Path: cfg.CatalogPath}
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		loader = db
		slog.Info("database connected, catalog from postgres")
	} else {
		slog.Info("catalog from file", "path", cfg.CatalogPath)
	}

	// Anthropic client
	if cfg.AnthropicAPIKey == "" {
		slog.Error("ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, slog.Default())
	llm.SetBaseURL(cfg.AnthropicBaseURL)
	slog.Info("anthropic client ready", "model", cfg.AnthropicModel)

	// Embeddings
	var emb embedding.Embedder
	if cfg.EmbeddingURL != "" {
		emb = embedding.NewClient(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, slog.Default())
	} else {
		emb = embedding.NewHasher(cfg.EmbeddingDim)
	}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		emb = embedding.NewCache(emb, rdb, cfg.EmbeddingCacheTTL, slog.Default())
		slog.Info("embedding cache enabled", "ttl", cfg.EmbeddingCacheTTL)
	}
	slog.Info("embedder ready", "model", emb.Model())

	prices := cost.DefaultTable()
	prices.TicketPrice = cfg.MovieTicketPrice

	sel, err := selector.New(prices, map[catalog.Domain]string{
		catalog.Movie:      cfg.RuleMovie,
		catalog.Restaurant: cfg.RuleRestaurant,
		catalog.Activity:   cfg.RuleActivity,
	})
	if err != nil {
		slog.Error("invalid selection rule", "error", err)
		os.Exit(1)
	}

	eng, err := engine.New(engine.Options{
		Loader:    loader,
		Embedder:  emb,
		Extractor: extractor.New(llm, cfg.ExtractTimeout, slog.Default()),
		Explainer: reasoning.New(llm, cfg.ReasonTimeout, slog.Default()),
		Selector:  sel,
		Prices:    prices,
		TopK:      cfg.TopK,
		Logger:    slog.Default(),
	})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	if err := eng.Load(ctx); err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	// NATS/Hermes (optional, events only)
	var events api.EventPublisher
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		events = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)

		if err := hermesClient.Publish("swarm.agent.concierge.registered", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	} else {
		slog.Warn("NATS not configured, recommendation events disabled")
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, eng, events, cfg.AnthropicModel, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("concierge ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("concierge stopped")
}

// seed copies the YAML catalog (CATALOG_PATH or the built-in one) into
// Postgres.
func seed(ctx context.Context, cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	c, err := catalog.FileLoader{Path: cfg.CatalogPath}.Load(ctx)
	if err != nil {
		return err
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	n, err := db.Seed(ctx, c)
	if err != nil {
		return err
	}
	slog.Info("catalog seeded", "items", n)
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
