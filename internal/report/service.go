package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	eventrepo "interview-integrity/backend/internal/event/repository"
	"interview-integrity/backend/internal/scoring"
	sessiondomain "interview-integrity/backend/internal/session/domain"
	sessionrepo "interview-integrity/backend/internal/session/repository"
)

// ErrNoEvents is returned when a report is requested for a session with an
// empty event log. Callers expecting prior activity get an explicit
// empty-state signal instead of a degenerate perfect-score report.
var ErrNoEvents = errors.New("report: session has no recorded events")

// Cache stores rendered reports keyed by session id. Reports for finalized
// sessions are immutable, so cached copies never go stale.
type Cache interface {
	Get(ctx context.Context, sessionID string) (csv string, ok bool)
	Set(ctx context.Context, sessionID, csv string)
}

// Service generates integrity reports and records the final score on the
// session.
type Service struct {
	sessions sessionrepo.Repository
	events   eventrepo.Repository
	cache    Cache // may be nil
	logger   zerolog.Logger
	nowF     func() time.Time
}

// NewService returns a report Service. cache may be nil.
func NewService(sessions sessionrepo.Repository, events eventrepo.Repository, cache Cache, logger zerolog.Logger) *Service {
	return &Service{
		sessions: sessions,
		events:   events,
		cache:    cache,
		logger:   logger,
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// Generate scores the session's event log and assembles the report document.
// Returns sessiondomain.ErrNotFound for an unknown id and ErrNoEvents for an
// empty log. The computed score is persisted on the session best-effort.
func (s *Service) Generate(ctx context.Context, sessionID string) (*Document, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("report: load session: %w", err)
	}
	if sess == nil {
		return nil, sessiondomain.ErrNotFound
	}
	events, err := s.events.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("report: load events: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	result := scoring.Score(events)
	doc := Assemble(sess, events, result, s.nowF())

	if err := s.sessions.SetFinalScore(ctx, sessionID, result.FinalScore); err != nil {
		s.logger.Warn().Err(err).Str("sessionId", sessionID).Msg("failed to persist final score")
	}
	return doc, nil
}

// GenerateCSV returns the rendered report, serving finalized sessions from
// the cache when one is configured. cacheHit lets callers count hits.
func (s *Service) GenerateCSV(ctx context.Context, sessionID string) (csv string, cacheHit bool, err error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, sessionID); ok {
			return cached, true, nil
		}
	}
	doc, err := s.Generate(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	rendered := doc.CSV()
	// Only finalized sessions are cacheable; a running session's duration
	// and log are still moving.
	if s.cache != nil && doc.Summary.EndedAt != nil {
		s.cache.Set(ctx, sessionID, rendered)
	}
	return rendered, false, nil
}
