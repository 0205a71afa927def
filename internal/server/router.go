// Package server exposes the session lifecycle over HTTP: create session,
// ingest observations, append events, finalize, and generate the report.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"interview-integrity/backend/internal/event"
	"interview-integrity/backend/internal/monitor"
	"interview-integrity/backend/internal/observability/metrics"
	"interview-integrity/backend/internal/observation"
	"interview-integrity/backend/internal/report"
	sessionrepo "interview-integrity/backend/internal/session/repository"
)

// Pinger is used by the readiness endpoint (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the handler dependencies.
type Deps struct {
	Sessions sessionrepo.Repository
	Events   *event.Log
	Reports  *report.Service
	// Monitor drives per-session sampling; started on create, stopped on
	// finalize. May be nil (e.g. in an append-only deployment).
	Monitor *monitor.Manager
	// Observations receives pushed frames for the monitor. May be nil.
	Observations *observation.Queue
	// Pinger is used for readiness. May be nil; then readiness skips the
	// DB ping.
	Pinger Pinger
	// Gatherer backs GET /metrics. May be nil to use the default registry.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(deps Deps) http.Handler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Get("/v1/liveness", h.liveness)
	r.Get("/v1/readiness", h.readiness)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Post("/{id}/events", h.appendEvent)
		r.Post("/{id}/observations", h.pushObservation)
		r.Post("/{id}/finalize", h.finalizeSession)
		r.Get("/{id}/report", h.generateReport)
	})

	return otelhttp.NewHandler(r, "interview-integrity")
}
