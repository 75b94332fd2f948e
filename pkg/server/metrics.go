package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	activeSessions prometheus.Gauge
	sessionsTotal  prometheus.Counter
	resumesTotal   prometheus.Counter
	eventsTotal    *prometheus.CounterVec
	flushDuration  prometheus.Histogram
	updatesSent    prometheus.Counter
	engineErrors   prometheus.Counter
	snapshotErrors prometheus.Counter
	decodeErrors   prometheus.Counter
}

// newMetrics registers the server collectors with reg.
func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	const ns = "ripple"

	return &Metrics{
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "active_sessions",
			Help:      "Number of connected sessions.",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "sessions_total",
			Help:      "Total sessions created.",
		}),
		resumesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "session_resumes_total",
			Help:      "Total sessions resumed from a snapshot.",
		}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "events_total",
			Help:      "Inbound frames by type.",
		}, []string{"type"}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "flush_duration_seconds",
			Help:      "Duration of graph flushes triggered by client writes.",
			Buckets:   prometheus.DefBuckets,
		}),
		updatesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "updates_sent_total",
			Help:      "Observer emissions pushed to clients.",
		}),
		engineErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "engine_errors_total",
			Help:      "Errors reported by session graphs (observer failures, cycles, budget).",
		}),
		snapshotErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "snapshot_errors_total",
			Help:      "Failures saving or loading session snapshots.",
		}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "decode_errors_total",
			Help:      "Malformed inbound frames.",
		}),
	}
}
