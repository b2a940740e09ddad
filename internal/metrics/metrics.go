// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsTotal counts engine results by status (ok, error).
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_recommendations_total",
			Help: "Recommendation requests by result status",
		},
		[]string{"status"},
	)

	// StageDuration times each pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_stage_duration_seconds",
			Help:    "Duration of recommendation pipeline stages",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"stage"},
	)

	// Degradations counts stages that fell back instead of failing
	// (extract, reason).
	Degradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_degradations_total",
			Help: "Pipeline stages that degraded to a fallback",
		},
		[]string{"stage"},
	)

	// EmptyDomains counts domains that produced no recommendation.
	EmptyDomains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_empty_domain_total",
			Help: "Requests where a domain had no candidate",
		},
		[]string{"domain"},
	)

	// SelectorFallbacks counts selections that ignored the hard constraints
	// because no candidate satisfied them.
	SelectorFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_selector_fallback_total",
			Help: "Selections that fell back to the best unfiltered candidate",
		},
		[]string{"domain"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "concierge_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
