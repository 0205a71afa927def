package monitor

import (
	"sync"
	"time"

	eventdomain "interview-integrity/backend/internal/event/domain"
)

// DefaultCooldown is the minimum spacing between two accepted events of the
// same type within one session. A sustained condition can pass its run-length
// threshold every tick; the cooldown keeps it from flooding the event log.
const DefaultCooldown = 10 * time.Second

// Throttle rate-limits candidate events per (session, type) pair.
// Safe for concurrent use across sessions.
type Throttle struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[string]map[eventdomain.Type]time.Time
}

// NewThrottle returns a Throttle with the given cooldown; cooldown <= 0 means
// DefaultCooldown.
func NewThrottle(cooldown time.Duration) *Throttle {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Throttle{
		cooldown: cooldown,
		last:     make(map[string]map[eventdomain.Type]time.Time),
	}
}

// ShouldEmit reports whether an event of the given type may be emitted for
// the session at time now. The first event of a type is always accepted;
// later ones only once the cooldown since the last accepted event has passed.
// Accepting updates the last-accepted timestamp.
func (t *Throttle) ShouldEmit(sessionID string, typ eventdomain.Type, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	byType := t.last[sessionID]
	if byType == nil {
		byType = make(map[eventdomain.Type]time.Time)
		t.last[sessionID] = byType
	}
	if lastAt, ok := byType[typ]; ok && now.Sub(lastAt) < t.cooldown {
		return false
	}
	byType[typ] = now
	return true
}

// Evict drops all throttle state for the session. Called at session end.
func (t *Throttle) Evict(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, sessionID)
}
