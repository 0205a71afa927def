package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"interview-integrity/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, candidate_name, started_at, ended_at, recording_url, integrity_score, created_at`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListActive returns all sessions with no end time, oldest first.
func (r *PostgresRepository) ListActive(ctx context.Context) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE ended_at IS NULL ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, candidate_name, started_at, ended_at, recording_url, integrity_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.CandidateName, s.StartedAt, timeToNullTime(s.EndedAt),
		sql.NullString{String: s.RecordingURL, Valid: s.RecordingURL != ""},
		intToNullInt(s.FinalScore), s.CreatedAt)
	return err
}

// Finalize sets ended_at (and recording_url when non-empty) for a session
// that has not ended. Reports whether a row was updated.
func (r *PostgresRepository) Finalize(ctx context.Context, id string, endedAt time.Time, recordingURL string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET ended_at = $2, recording_url = COALESCE(NULLIF($3, ''), recording_url)
		 WHERE id = $1 AND ended_at IS NULL`,
		id, endedAt, recordingURL)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetFinalScore records the computed integrity score on the session.
func (r *PostgresRepository) SetFinalScore(ctx context.Context, id string, score int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET integrity_score = $2 WHERE id = $1`, id, score)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s            domain.Session
		endedAt      sql.NullTime
		recordingURL sql.NullString
		score        sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.CandidateName, &s.StartedAt, &endedAt, &recordingURL, &score, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.EndedAt = nullTimeToPtr(endedAt)
	if recordingURL.Valid {
		s.RecordingURL = recordingURL.String
	}
	if score.Valid {
		v := int(score.Int64)
		s.FinalScore = &v
	}
	return &s, nil
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

func intToNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
