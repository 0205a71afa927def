package repository

import (
	"context"

	"interview-integrity/backend/internal/event/domain"
)

// Repository defines persistence for anomaly events. The store is
// append-only: no update or delete is exposed.
type Repository interface {
	// Append persists the event. The event must have ID and SessionID set.
	Append(ctx context.Context, e *domain.Event) error
	// ListBySession returns all events for the session in start-time order;
	// an empty slice if none.
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Event, error)
}
