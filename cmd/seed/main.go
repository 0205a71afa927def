// Seed drives a synthetic interview session through the real anomaly
// pipeline against the configured database and prints the resulting
// report. Useful for exercising the full stack locally without a camera.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"interview-integrity/backend/internal/config"
	"interview-integrity/backend/internal/db"
	"interview-integrity/backend/internal/event"
	eventrepo "interview-integrity/backend/internal/event/repository"
	"interview-integrity/backend/internal/monitor"
	"interview-integrity/backend/internal/observability/logging"
	"interview-integrity/backend/internal/observation"
	"interview-integrity/backend/internal/report"
	sessiondomain "interview-integrity/backend/internal/session/domain"
	sessionrepo "interview-integrity/backend/internal/session/repository"
)

const frameWidth = 640

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})
	logger := logging.WithComponent("seed")

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	defer database.Close()

	ctx := context.Background()
	sessions := sessionrepo.NewPostgresRepository(database)
	events := eventrepo.NewPostgresRepository(database)
	log := event.NewLog(sessions, events, nil, logger)
	pipeline := monitor.NewPipeline(log, nil, logger)

	start := time.Now().UTC().Add(-10 * time.Minute)
	sess := &sessiondomain.Session{
		ID:            uuid.New().String(),
		CandidateName: gofakeit.Name(),
		StartedAt:     start,
		CreatedAt:     start,
	}
	if err := sessions.Create(ctx, sess); err != nil {
		logger.Fatal().Err(err).Msg("create session")
	}
	logger.Info().
		Str("sessionId", sess.ID).
		Str("candidate", sess.CandidateName).
		Msg("seeded session")

	for _, obs := range script() {
		if err := pipeline.Tick(ctx, sess.ID, obs); err != nil {
			logger.Warn().Err(err).Msg("tick")
		}
	}
	pipeline.EndSession(sess.ID)

	if _, err := sessions.Finalize(ctx, sess.ID, time.Now().UTC(), ""); err != nil {
		logger.Fatal().Err(err).Msg("finalize")
	}

	reports := report.NewService(sessions, events, nil, logger)
	csv, _, err := reports.GenerateCSV(ctx, sess.ID)
	if err != nil {
		logger.Fatal().Err(err).Msg("report")
	}
	fmt.Print(csv)
}

// script produces an observation stream long enough to trip every
// detector once: a calm warm-up, a sustained off-center gaze, a face
// dropout, a second face, and a phone and a book on the desk.
func script() []*observation.RawObservation {
	var obs []*observation.RawObservation

	for i := 0; i < 8; i++ {
		obs = append(obs, centered())
	}
	for i := 0; i < 6; i++ {
		obs = append(obs, offCenter())
	}
	for i := 0; i < 11; i++ {
		obs = append(obs, &observation.RawObservation{FrameWidth: frameWidth})
	}
	o := centered()
	o.ExtraFaces = 1
	obs = append(obs, o)

	o = centered()
	o.Objects = []observation.Detection{{
		Class:      "cell phone",
		Confidence: gofakeit.Float64Range(0.55, 0.95),
		Box:        observation.Box{XMin: 400, YMin: 300, XMax: 480, YMax: 420},
	}}
	obs = append(obs, o)

	o = centered()
	o.Objects = []observation.Detection{{
		Class:      "book",
		Confidence: gofakeit.Float64Range(0.65, 0.95),
		Box:        observation.Box{XMin: 100, YMin: 350, XMax: 260, YMax: 460},
	}}
	obs = append(obs, o)

	for i := 0; i < 4; i++ {
		obs = append(obs, centered())
	}
	return obs
}

func centered() *observation.RawObservation {
	center := frameWidth/2 + gofakeit.Float64Range(-40, 40)
	return faceAt(center)
}

func offCenter() *observation.RawObservation {
	center := frameWidth/2 + gofakeit.Float64Range(140, 220)
	return faceAt(center)
}

func faceAt(centerX float64) *observation.RawObservation {
	half := gofakeit.Float64Range(55, 75)
	return &observation.RawObservation{
		FrameWidth: frameWidth,
		PrimaryFace: &observation.Box{
			XMin: centerX - half,
			YMin: 120,
			XMax: centerX + half,
			YMax: 320,
		},
	}
}
