package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the pipeline's Prometheus collectors.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg yields unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "researchhive_pipeline_stage_duration_seconds",
			Help:    "Duration of each generation pipeline stage.",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage", "outcome"}),
		stageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "researchhive_pipeline_stage_failures_total",
			Help: "Failed pipeline stages, fatal or best-effort.",
		}, []string{"stage", "fatal"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "researchhive_pipeline_runs_total",
			Help: "Finished pipeline runs by final state.",
		}, []string{"state"}),
	}
}
