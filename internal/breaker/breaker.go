// Package breaker guards calls to external backends (LLM, embeddings) with a
// circuit breaker so a dead backend fails fast instead of stalling requests.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MikeSquared-Agency/concierge/internal/metrics"
)

// Settings tunes when the breaker opens.
type Settings struct {
	MinRequests  uint32        // requests in the window before the failure ratio counts
	FailureRatio float64       // open at or above this ratio
	Interval     time.Duration // closed-state counting window
	Timeout      time.Duration // open-state cooldown before half-open
	MaxRequests  uint32        // calls let through while half-open
}

// DefaultSettings opens after 60% failures over at least 5 calls and retries
// after 30 seconds. Half-open admits 3 calls, one per concurrent domain query.
func DefaultSettings() Settings {
	return Settings{
		MinRequests:  5,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MaxRequests:  3,
	}
}

// Breaker wraps a gobreaker circuit breaker with logging and metrics.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a breaker named name.
func New[T any](name string, s Settings, logger *slog.Logger) *Breaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &Breaker[T]{cb: cb}
}

// Execute runs fn unless the circuit is open. An open circuit returns
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

// State reports the current breaker state.
func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}

// isSuccessful does not hold a caller that went away against the backend.
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
