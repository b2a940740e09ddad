package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     int
	LogLevel string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	ExtractTimeout   time.Duration
	ReasonTimeout    time.Duration

	EmbeddingURL      string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	EmbeddingDim      int
	RedisURL          string
	EmbeddingCacheTTL time.Duration

	CatalogPath string
	DatabaseURL string

	NatsURL   string
	NatsToken string

	TopK             int
	MovieTicketPrice float64
	RuleMovie        string
	RuleRestaurant   string
	RuleActivity     string
}

func Load() Config {
	return Config{
		Port:     envInt("CONCIERGE_PORT", 8760),
		LogLevel: envStr("LOG_LEVEL", "info"),

		AnthropicAPIKey:  envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   envStr("CONCIERGE_MODEL", "claude-sonnet-4-20250514"),
		AnthropicBaseURL: envStr("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		ExtractTimeout:   envDuration("EXTRACT_TIMEOUT", 20*time.Second),
		ReasonTimeout:    envDuration("REASON_TIMEOUT", 20*time.Second),

		EmbeddingURL:      envStr("EMBEDDING_URL", ""),
		EmbeddingModel:    envStr("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingAPIKey:   envStr("EMBEDDING_API_KEY", ""),
		EmbeddingDim:      envInt("EMBEDDING_DIM", 384),
		RedisURL:          envStr("REDIS_URL", ""),
		EmbeddingCacheTTL: envDuration("EMBEDDING_CACHE_TTL", 168*time.Hour),

		CatalogPath: envStr("CATALOG_PATH", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),

		TopK:             envInt("TOP_K", 5),
		MovieTicketPrice: envFloat("MOVIE_TICKET_PRICE", 15),
		RuleMovie:        envStr("RULE_MOVIE", ""),
		RuleRestaurant:   envStr("RULE_RESTAURANT", ""),
		RuleActivity:     envStr("RULE_ACTIVITY", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
