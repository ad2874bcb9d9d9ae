// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RendersTotal counts rendered documents and fragments by flavor.
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_renders_total",
			Help: "Total number of newsletter renders",
		},
		[]string{"flavor", "scope"},
	)

	// RenderDuration measures full document renders.
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsletter_render_duration_seconds",
			Help:    "Newsletter render duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"flavor"},
	)

	// MutationsTotal counts document operations by name and outcome.
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_mutations_total",
			Help: "Total number of document mutations",
		},
		[]string{"op", "result"},
	)

	// SourceFetchTotal counts external media source fetches.
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_source_fetch_total",
			Help: "Total number of external media source fetches",
		},
		[]string{"source", "kind", "status"},
	)

	// ActiveSessions tracks open editor sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsletter_editor_sessions",
			Help: "Number of open editor sessions",
		},
	)
)

// RecordRender records a full document render.
func RecordRender(flavor string, d time.Duration) {
	RendersTotal.WithLabelValues(flavor, "document").Inc()
	RenderDuration.WithLabelValues(flavor).Observe(d.Seconds())
}

// RecordFragment records a single-section render.
func RecordFragment(flavor string) {
	RendersTotal.WithLabelValues(flavor, "section").Inc()
}

// RecordMutation records a document operation. result is "ok" or an error class.
func RecordMutation(op, result string) {
	MutationsTotal.WithLabelValues(op, result).Inc()
}

// RecordSourceFetch records one call to an external media source.
func RecordSourceFetch(source, kind string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	SourceFetchTotal.WithLabelValues(source, kind, status).Inc()
}
