// Package metrics owns the prometheus collectors shared across services
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trackergen"

// Rate limit outcomes
const (
	RateAllowed = "allowed"
	RateLimited = "limited"
	RateError   = "error"
)

var (
	rateLimitDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratelimit",
		Name:      "decisions_total",
		Help:      "Rate limit decisions by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	rateLimitErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratelimit",
		Name:      "errors_total",
		Help:      "Counter backend failures that were allowed through (fail open)",
	}, []string{"backend"})

	rateLimitPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ratelimit",
		Name:      "pruned_total",
		Help:      "Expired rate limit records removed by the cleanup loop",
	})

	llmRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "LLM calls by operation and outcome",
	}, []string{"op", "outcome"})

	llmLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "latency_seconds",
		Help:      "LLM round trip latency",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
	}, []string{"op"})

	lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lookup",
		Name:      "requests_total",
		Help:      "Context lookups by source and outcome",
	}, []string{"source", "outcome"})

	securityEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "seclog",
		Name:      "events_total",
		Help:      "Security events accepted for delivery by type and severity",
	}, []string{"type", "severity"})

	securityDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "seclog",
		Name:      "dropped_total",
		Help:      "Security events dropped because the queue was full or closed",
	})

	securitySinkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "seclog",
		Name:      "sink_errors_total",
		Help:      "Security event delivery failures by sink",
	}, []string{"sink"})

	resolutionSource = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "disambiguate",
		Name:      "resolutions_total",
		Help:      "Ambiguity checks by the stage that produced the answer",
	}, []string{"source"})

	generationOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "configgen",
		Name:      "outcomes_total",
		Help:      "Config generation results by outcome",
	}, []string{"outcome"})
)

// Register attaches the collectors plus go and process collectors to reg
// Collectors that are already registered are skipped
func Register(reg prometheus.Registerer) error {
	cs := []prometheus.Collector{
		rateLimitDecisions, rateLimitErrors, rateLimitPruned,
		llmRequests, llmLatency,
		lookups,
		securityEvents, securityDropped, securitySinkErrors,
		resolutionSource, generationOutcome,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the given gatherer in the prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RateLimitDecision counts one limiter verdict
func RateLimitDecision(endpoint, outcome string) {
	rateLimitDecisions.WithLabelValues(endpoint, outcome).Inc()
}

// RateLimitError counts a backend failure that was allowed through
func RateLimitError(backend string) { rateLimitErrors.WithLabelValues(backend).Inc() }

// RateLimitPruned adds n removed records
func RateLimitPruned(n int) {
	if n > 0 {
		rateLimitPruned.Add(float64(n))
	}
}

// LLMCall records one LLM round trip
func LLMCall(op, outcome string, d time.Duration) {
	llmRequests.WithLabelValues(op, outcome).Inc()
	llmLatency.WithLabelValues(op).Observe(max(d, 0).Seconds())
}

// Lookup records one context lookup
func Lookup(source, outcome string) { lookups.WithLabelValues(source, outcome).Inc() }

// SecurityEvent counts an accepted security event
func SecurityEvent(typ, severity string) { securityEvents.WithLabelValues(typ, severity).Inc() }

// SecurityEventDropped counts an event lost to backpressure
func SecurityEventDropped() { securityDropped.Inc() }

// SecuritySinkError counts a failed delivery
func SecuritySinkError(sink string) { securitySinkErrors.WithLabelValues(sink).Inc() }

// Resolution counts which stage answered an ambiguity check
func Resolution(source string) { resolutionSource.WithLabelValues(source).Inc() }

// Generation counts a config generation outcome
func Generation(outcome string) { generationOutcome.WithLabelValues(outcome).Inc() }
