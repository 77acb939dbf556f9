// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates prometheus metrics for the routing pipeline. Every
// collector owns its own registry so repeated construction (tests, multiple
// sessions) never trips duplicate-registration panics.
//
// All record methods are nil-safe: a nil *Collector is a no-op sink, so
// callers never need to guard metric calls.
type Collector struct {
	registry *prometheus.Registry

	routingDecisions *prometheus.CounterVec
	backendCalls     *prometheus.CounterVec
	backendLatency   *prometheus.HistogramVec
	sessionTurns     prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a metrics collector under the given namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	c := &Collector{
		registry: registry,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.routingDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_decisions_total",
			Help:      "Total number of routing decisions by query class and backend",
		},
		[]string{"class", "backend"},
	)

	c.backendCalls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Total number of backend invocations by outcome",
		},
		[]string{"backend", "outcome"},
	)

	c.backendLatency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Backend invocation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	c.sessionTurns = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_turns_total",
			Help:      "Total number of conversation turns processed",
		},
	)

	return c
}

// Registry returns the collector's registry for /metrics exposition.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordDecision counts one routing decision.
func (c *Collector) RecordDecision(class, backend string) {
	if c == nil {
		return
	}
	c.routingDecisions.WithLabelValues(class, backend).Inc()
}

// ObserveBackendCall records one backend invocation and its latency.
func (c *Collector) ObserveBackendCall(backend string, duration time.Duration, ok bool) {
	if c == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	c.backendCalls.WithLabelValues(backend, outcome).Inc()
	c.backendLatency.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordTurn counts one conversation turn.
func (c *Collector) RecordTurn() {
	if c == nil {
		return
	}
	c.sessionTurns.Inc()
}
