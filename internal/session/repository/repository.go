package repository

import (
	"context"
	"time"

	"interview-integrity/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// GetByID returns the session for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// ListActive returns all sessions that have not been finalized.
	ListActive(ctx context.Context) ([]*domain.Session, error)
	// Create persists the session. The session must have ID set.
	Create(ctx context.Context, s *domain.Session) error
	// Finalize sets the session's end time and optional recording reference.
	// It only applies to sessions that have not ended and reports whether a
	// row was updated, making repeated finalize a detectable no-op.
	Finalize(ctx context.Context, id string, endedAt time.Time, recordingURL string) (bool, error)
	// SetFinalScore records the computed integrity score on the session.
	SetFinalScore(ctx context.Context, id string, score int) error
}
