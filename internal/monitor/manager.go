package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"interview-integrity/backend/internal/observability/metrics"
	"interview-integrity/backend/internal/observation"
)

// DefaultTickInterval is the sampling period driving the classifier.
const DefaultTickInterval = time.Second

// evictor is implemented by sources that hold per-session state (e.g. the
// observation queue).
type evictor interface {
	Evict(sessionID string)
}

// runner is the handle to one session's tick goroutine. done is closed when
// the goroutine has fully exited, so Stop can order eviction after the last
// tick.
type runner struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager schedules the sampling tick for each running session. Each session
// gets one goroutine with its own ticker, so ticks for a session never
// interleave; sessions tick independently of each other.
type Manager struct {
	pipeline *Pipeline
	source   observation.Source
	interval time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu      sync.Mutex
	runners map[string]*runner
	wg      sync.WaitGroup
}

// NewManager returns a Manager driving pipeline from source every interval.
// interval <= 0 means DefaultTickInterval; m may be nil.
func NewManager(pipeline *Pipeline, source observation.Source, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Manager{
		pipeline: pipeline,
		source:   source,
		interval: interval,
		metrics:  m,
		logger:   logger,
		runners:  make(map[string]*runner),
	}
}

// Start begins ticking the session. Starting an already-running session is a
// no-op.
func (m *Manager) Start(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, running := m.runners[sessionID]; running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{cancel: cancel, done: make(chan struct{})}
	m.runners[sessionID] = r
	m.metrics.SessionsActive.Inc()
	m.wg.Add(1)
	go func() {
		defer close(r.done)
		m.run(ctx, sessionID)
	}()
}

func (m *Manager) run(ctx context.Context, sessionID string) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	logger := m.logger.With().Str("sessionId", sessionID).Logger()
	logger.Info().Dur("interval", m.interval).Msg("session monitoring started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("session monitoring stopped")
			return
		case <-ticker.C:
			obs, err := m.source.Observe(ctx, sessionID)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				// Upstream failure: log it and skip the tick. The run-length
				// counters must not move on a perception gap.
				m.metrics.ObservationFailures.Inc()
				logger.Warn().Err(err).Msg("observation failed; skipping tick")
				continue
			}
			if err := m.pipeline.Tick(ctx, sessionID, obs); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("tick completed with append failure")
			}
		}
	}
}

// Stop halts ticking for the session and evicts its pipeline and source
// state. It waits for the tick goroutine to exit before dropping state, so
// an in-flight tick cannot recreate evicted windows behind it. Stopping an
// unknown session is a no-op.
func (m *Manager) Stop(sessionID string) {
	m.mu.Lock()
	r, running := m.runners[sessionID]
	if running {
		delete(m.runners, sessionID)
	}
	m.mu.Unlock()
	if !running {
		return
	}
	r.cancel()
	<-r.done
	m.metrics.SessionsActive.Dec()
	m.pipeline.EndSession(sessionID)
	if ev, ok := m.source.(evictor); ok {
		ev.Evict(sessionID)
	}
}

// Shutdown stops all sessions and waits for their tick goroutines to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.runners))
	for id := range m.runners {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Stop(id)
	}
	m.wg.Wait()
}
