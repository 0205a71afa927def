// Package metrics provides Prometheus metrics for the monitoring pipeline
// and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interview_integrity"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Sampling metrics
	TicksTotal          prometheus.Counter
	TicksSkipped        prometheus.Counter // ticks with no usable observation
	ObservationFailures prometheus.Counter
	ObservationsDropped prometheus.Counter // queue overflow
	SessionsActive      prometheus.Gauge

	// Event pipeline metrics
	CandidatesTotal prometheus.Counter
	EventsEmitted   *prometheus.CounterVec
	EventsThrottled *prometheus.CounterVec
	AppendFailures  prometheus.Counter

	// Kafka publish metrics
	PublishTotal  prometheus.Counter
	PublishErrors prometheus.Counter

	// Report metrics
	ReportsGenerated prometheus.Counter
	ReportCacheHits  prometheus.Counter
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TicksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total sampling ticks that processed an observation",
		}),
		TicksSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Ticks skipped because no observation was available",
		}),
		ObservationFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observation_failures_total",
			Help:      "Upstream observation calls that failed and were treated as no detections",
		}),
		ObservationsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_dropped_total",
			Help:      "Pushed observations dropped due to per-session queue overflow",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently being monitored",
		}),
		CandidatesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_candidates_total",
			Help:      "Candidate events produced by the classifier before throttling",
		}),
		EventsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_emitted_total",
			Help:      "Anomaly events accepted and appended to the event log",
		}, []string{"type"}),
		EventsThrottled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_throttled_total",
			Help:      "Candidate events suppressed by the per-type cooldown",
		}, []string{"type"}),
		AppendFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_append_failures_total",
			Help:      "Event log appends that failed at the persistence layer",
		}),
		PublishTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Anomaly events published to Kafka",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Kafka publish failures (best-effort, events remain in the log)",
		}),
		ReportsGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Integrity reports assembled",
		}),
		ReportCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_hits_total",
			Help:      "Report requests served from the Redis cache",
		}),
	}
}

// NewNop returns metrics registered on a private registry, for tests and for
// callers that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
