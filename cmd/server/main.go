// Server runs the interview-integrity HTTP API: session lifecycle, frame
// observation ingest, the anomaly pipeline, and report generation.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"interview-integrity/backend/internal/config"
	"interview-integrity/backend/internal/db"
	"interview-integrity/backend/internal/event"
	"interview-integrity/backend/internal/event/publisher"
	eventrepo "interview-integrity/backend/internal/event/repository"
	"interview-integrity/backend/internal/monitor"
	"interview-integrity/backend/internal/observability/logging"
	"interview-integrity/backend/internal/observability/metrics"
	"interview-integrity/backend/internal/observability/tracing"
	"interview-integrity/backend/internal/observation"
	"interview-integrity/backend/internal/report"
	"interview-integrity/backend/internal/server"
	sessionrepo "interview-integrity/backend/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{})
		logger := logging.WithComponent("server")
		logger.Fatal().Err(err).Msg("config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.WithComponent("server")

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	defer database.Close()

	ctx := context.Background()
	tracer, err := tracing.NewProvider(ctx, cfg.OTLPEndpoint, "interview-integrity", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	sessions := sessionrepo.NewPostgresRepository(database)
	events := eventrepo.NewPostgresRepository(database)

	pub, err := publisher.NewKafkaPublisher(cfg.KafkaBrokersList(), cfg.EventsKafkaTopic)
	if err != nil {
		logger.Fatal().Err(err).Msg("kafka publisher")
	}
	var eventLogPublisher event.Publisher
	if pub != nil {
		eventLogPublisher = pub
		logger.Info().Str("topic", cfg.EventsKafkaTopic).Msg("event publishing enabled")
	}

	eventLog := event.NewLog(sessions, events, eventLogPublisher, logging.WithComponent("eventlog"))
	eventLog.SetPublishHook(func(err error) {
		m.PublishTotal.Inc()
		if err != nil {
			m.PublishErrors.Inc()
		}
	})

	var cache report.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = report.NewRedisCache(rdb, cfg.CacheTTL(), logging.WithComponent("reportcache"))
		logger.Info().Str("addr", cfg.RedisAddr).Msg("report cache enabled")
	}
	reports := report.NewService(sessions, events, cache, logging.WithComponent("report"))

	queue := observation.NewQueue(0)
	pipeline := monitor.NewPipeline(eventLog, m, logging.WithComponent("pipeline"))
	manager := monitor.NewManager(pipeline, queue, cfg.Interval(), m, logging.WithComponent("monitor"))

	// Resume sampling for sessions that were running when the server last
	// stopped.
	if active, err := sessions.ListActive(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not list active sessions")
	} else {
		for _, s := range active {
			manager.Start(s.ID)
		}
		if len(active) > 0 {
			logger.Info().Int("count", len(active)).Msg("resumed monitoring for active sessions")
		}
	}

	router := server.NewRouter(server.Deps{
		Sessions:     sessions,
		Events:       eventLog,
		Reports:      reports,
		Monitor:      manager,
		Observations: queue,
		Pinger:       database,
		Metrics:      m,
		Logger:       logging.WithComponent("http"),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	manager.Shutdown()
	if pub != nil {
		_ = pub.Close()
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracing shutdown")
	}
	logger.Info().Msg("stopped")
}
