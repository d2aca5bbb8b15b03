// Package metrics defines the Prometheus collectors for cache and pipeline
// stages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every topology collector. It is separate from the default
// registry so library users do not get our collectors registered globally.
var Registry = prometheus.NewRegistry()

var (
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topology",
			Name:      "cache_lookups_total",
			Help:      "Artifact cache lookups by kind and result",
		},
		[]string{"kind", "result"}, // "hit" / "miss" / "stale" / "error"
	)

	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topology",
			Name:      "cache_errors_total",
			Help:      "Artifact cache failures by kind and operation",
		},
		[]string{"kind", "op"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topology",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"stage"},
	)
)

func init() {
	Registry.MustRegister(CacheLookupsTotal)
	Registry.MustRegister(CacheErrorsTotal)
	Registry.MustRegister(StageDuration)
}

// Stage starts timing a pipeline stage; call the returned func when done.
func Stage(name string) func() {
	timer := prometheus.NewTimer(StageDuration.WithLabelValues(name))
	return func() { timer.ObserveDuration() }
}
