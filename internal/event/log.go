// Package event provides the append-only anomaly event log: the source of
// truth for scoring and reporting.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"interview-integrity/backend/internal/event/domain"
	eventrepo "interview-integrity/backend/internal/event/repository"
	sessiondomain "interview-integrity/backend/internal/session/domain"
	sessionrepo "interview-integrity/backend/internal/session/repository"
)

// publishTimeout bounds the async Kafka publish of an accepted event.
const publishTimeout = 5 * time.Second

// Publisher emits accepted anomaly events to a stream (e.g. Kafka).
// Callers use it best-effort: failures are logged and do not affect the log.
type Publisher interface {
	Publish(ctx context.Context, e *domain.Event) error
	Close() error
}

// Log enforces the event log's session semantics: events may be appended
// only to a session that exists and has not ended, are assigned a
// server-side id, and are immutable once stored.
type Log struct {
	sessions  sessionrepo.Repository
	events    eventrepo.Repository
	publisher Publisher // may be nil
	logger    zerolog.Logger
	nowF      func() time.Time
	onPublish func(err error) // metrics hook; may be nil
}

// NewLog returns a Log backed by the given repositories. publisher may be
// nil; then accepted events are only persisted.
func NewLog(sessions sessionrepo.Repository, events eventrepo.Repository, publisher Publisher, logger zerolog.Logger) *Log {
	return &Log{
		sessions:  sessions,
		events:    events,
		publisher: publisher,
		logger:    logger,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// SetPublishHook installs a callback invoked after every async publish
// attempt with its result. Used to wire publish metrics.
func (l *Log) SetPublishHook(hook func(err error)) {
	l.onPublish = hook
}

// Append validates the session, assigns a server-side id, and persists the
// event. It returns sessiondomain.ErrInvalidSession when the session is
// unknown or already finalized, and the stored event on success. The input
// event is not mutated.
func (l *Log) Append(ctx context.Context, sessionID string, e *domain.Event) (*domain.Event, error) {
	if e == nil || e.Type == "" {
		return nil, errors.New("event: type is required")
	}
	s, err := l.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("event: load session: %w", err)
	}
	if s == nil || s.Ended() {
		return nil, sessiondomain.ErrInvalidSession
	}

	now := l.nowF()
	stored := *e
	stored.ID = uuid.New().String()
	stored.SessionID = sessionID
	if stored.StartedAt.IsZero() {
		stored.StartedAt = now
	}
	stored.CreatedAt = now

	if err := l.events.Append(ctx, &stored); err != nil {
		return nil, fmt.Errorf("event: append: %w", err)
	}
	l.publishAsync(&stored)
	return &stored, nil
}

// ListBySession returns the session's events in start-time order.
func (l *Log) ListBySession(ctx context.Context, sessionID string) ([]*domain.Event, error) {
	return l.events.ListBySession(ctx, sessionID)
}

// publishAsync emits the stored event in a goroutine so slow Kafka never
// blocks the tick. Uses context.Background so request cancellation does not
// abort an in-flight publish.
func (l *Log) publishAsync(e *domain.Event) {
	if l.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		err := l.publisher.Publish(ctx, e)
		if err != nil {
			l.logger.Warn().Err(err).
				Str("sessionId", e.SessionID).
				Str("type", string(e.Type)).
				Msg("event publish failed")
		}
		if l.onPublish != nil {
			l.onPublish(err)
		}
	}()
}
