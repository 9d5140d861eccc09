// Package metrics provides Prometheus metrics for rendering and publishing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

var (
	// RenderTotal counts finished or refused renders by outcome.
	RenderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidecast_render_total",
		Help: "Total number of render attempts, by outcome (success/failure/rejected).",
	}, []string{"outcome"})

	// RenderDuration observes wall time of completed renders.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slidecast_render_duration_seconds",
		Help:    "Wall time of render jobs.",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
	})

	// RenderInFlight is 1 while a render is running.
	RenderInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slidecast_render_in_flight",
		Help: "Number of renders currently running (0 or 1).",
	})

	// PublishTotal counts publish attempts by outcome.
	PublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slidecast_publish_total",
		Help: "Total number of publish attempts, by outcome (success/failure/rejected).",
	}, []string{"outcome"})

	// ArtifactBytes observes rendered artifact sizes.
	ArtifactBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slidecast_artifact_bytes",
		Help:    "Size of rendered video artifacts in bytes.",
		Buckets: prometheus.ExponentialBuckets(256<<10, 4, 8),
	})
)
