// Package metrics exposes Prometheus collectors for the suggestion lifecycle.
//
// A nil *Collector is valid and records nothing, so components can report
// unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace is the metric namespace used when none is given.
const DefaultNamespace = "marginalia"

// Edit sources, used as the source label of edits_applied_total.
const (
	SourceHost   = "host"
	SourceAccept = "accept"
)

// Collector records suggestion lifecycle metrics.
type Collector struct {
	registered *prometheus.CounterVec
	resolved   *prometheus.CounterVec
	edits      *prometheus.CounterVec
	pending    prometheus.Gauge
}

// NewCollector creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer. Registering the same
// namespace twice on one registry panics.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Collector{
		registered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_registered_total",
			Help:      "Suggestions registered, by kind.",
		}, []string{"kind"}),
		resolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_resolved_total",
			Help:      "Suggestions resolved, by kind, final status and reason.",
		}, []string{"kind", "status", "reason"}),
		edits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_applied_total",
			Help:      "Document edits applied, by source (host or accept).",
		}, []string{"source"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suggestions_pending",
			Help:      "Suggestions currently pending.",
		}),
	}
}

// Registered counts a registered suggestion.
func (c *Collector) Registered(kind string) {
	if c == nil {
		return
	}
	c.registered.WithLabelValues(kind).Inc()
}

// Resolved counts a suggestion leaving the pending state.
func (c *Collector) Resolved(kind, status, reason string) {
	if c == nil {
		return
	}
	c.resolved.WithLabelValues(kind, status, reason).Inc()
}

// EditApplied counts an applied document edit.
func (c *Collector) EditApplied(source string) {
	if c == nil {
		return
	}
	c.edits.WithLabelValues(source).Inc()
}

// SetPending records the current number of pending suggestions.
func (c *Collector) SetPending(n int) {
	if c == nil {
		return
	}
	c.pending.Set(float64(n))
}
