package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"interview-integrity/backend/internal/event/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an event repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists the event. The event must have ID and SessionID set.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.Event) error {
	var meta any
	if len(e.Meta) > 0 {
		meta = []byte(e.Meta)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, session_id, type, started_at, ended_at, meta, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SessionID, string(e.Type), e.StartedAt, timeToNullTime(e.EndedAt), meta, e.CreatedAt)
	return err
}

// ListBySession returns all events for the session ordered by start time,
// with insertion order as the tiebreak.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, type, started_at, ended_at, meta, created_at
		 FROM events WHERE session_id = $1 ORDER BY started_at, created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.Event{}
	for rows.Next() {
		var (
			e       domain.Event
			typ     string
			endedAt sql.NullTime
			meta    []byte
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &typ, &e.StartedAt, &endedAt, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = domain.Type(typ)
		e.EndedAt = nullTimeToPtr(endedAt)
		if len(meta) > 0 {
			e.Meta = json.RawMessage(meta)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
