package observation

import (
	"context"
	"sync"
)

// DefaultQueueCapacity bounds the per-session backlog of pushed frames. The
// sampler consumes one observation per tick, so a deep backlog only means the
// pusher is outrunning the tick rate; oldest frames are dropped first.
const DefaultQueueCapacity = 30

// Queue is a Source fed by pushed observations (one queue per session).
// Push and Observe are safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	pending  map[string][]*RawObservation
	capacity int
}

// NewQueue returns a Queue holding at most capacity pending observations per
// session. capacity <= 0 means DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{pending: make(map[string][]*RawObservation), capacity: capacity}
}

// Push enqueues one observation for the session. When the session's queue is
// full the oldest pending observation is dropped; Push reports whether a drop
// occurred.
func (q *Queue) Push(sessionID string, obs *RawObservation) (dropped bool) {
	if obs == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	buf := q.pending[sessionID]
	if len(buf) >= q.capacity {
		buf = buf[1:]
		dropped = true
	}
	q.pending[sessionID] = append(buf, obs)
	return dropped
}

// Observe pops the oldest pending observation for the session, or (nil, nil)
// when none is pending.
func (q *Queue) Observe(ctx context.Context, sessionID string) (*RawObservation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	buf := q.pending[sessionID]
	if len(buf) == 0 {
		return nil, nil
	}
	obs := buf[0]
	if len(buf) == 1 {
		delete(q.pending, sessionID)
	} else {
		q.pending[sessionID] = buf[1:]
	}
	return obs, nil
}

// Evict drops all pending observations for the session. Called at session end.
func (q *Queue) Evict(sessionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, sessionID)
}
