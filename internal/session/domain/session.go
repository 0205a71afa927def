package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session not found")

// ErrInvalidSession is returned when an operation references a session that
// does not exist or has already been finalized.
var ErrInvalidSession = errors.New("invalid session: unknown or already ended")

// Session represents one monitored interview from start to finalize.
type Session struct {
	ID            string
	CandidateName string
	StartedAt     time.Time
	EndedAt       *time.Time // nil while the session is running
	RecordingURL  string     // empty until a recording is attached at finalize
	FinalScore    *int       // nil until a report has been generated
	CreatedAt     time.Time
}

// Ended reports whether the session has been finalized.
func (s *Session) Ended() bool {
	return s != nil && s.EndedAt != nil
}
