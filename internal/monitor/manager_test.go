package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"interview-integrity/backend/internal/observation"
)

type countingSource struct {
	mu      sync.Mutex
	calls   map[string]int
	evicted map[string]bool
}

func newCountingSource() *countingSource {
	return &countingSource{calls: make(map[string]int), evicted: make(map[string]bool)}
}

func (s *countingSource) Observe(ctx context.Context, sessionID string) (*observation.RawObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[sessionID]++
	return nil, nil
}

func (s *countingSource) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evicted[sessionID] = true
}

func (s *countingSource) callCount(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[sessionID]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestManagerTicksSession(t *testing.T) {
	source := newCountingSource()
	mgr := NewManager(NewPipeline(&memAppender{}, nil, zerolog.Nop()), source, 5*time.Millisecond, nil, zerolog.Nop())

	mgr.Start("s1")
	waitFor(t, func() bool { return source.callCount("s1") >= 3 })
	mgr.Shutdown()
}

func TestManagerStartIsIdempotent(t *testing.T) {
	source := newCountingSource()
	mgr := NewManager(NewPipeline(&memAppender{}, nil, zerolog.Nop()), source, 5*time.Millisecond, nil, zerolog.Nop())

	mgr.Start("s1")
	mgr.Start("s1")
	mgr.mu.Lock()
	running := len(mgr.runners)
	mgr.mu.Unlock()
	if running != 1 {
		t.Errorf("%d running sessions, want 1", running)
	}
	mgr.Shutdown()
}

func TestManagerStopHaltsTicksAndEvicts(t *testing.T) {
	source := newCountingSource()
	mgr := NewManager(NewPipeline(&memAppender{}, nil, zerolog.Nop()), source, 5*time.Millisecond, nil, zerolog.Nop())

	mgr.Start("s1")
	waitFor(t, func() bool { return source.callCount("s1") >= 1 })
	mgr.Stop("s1")
	mgr.wg.Wait()

	source.mu.Lock()
	if !source.evicted["s1"] {
		t.Error("source state not evicted on Stop")
	}
	source.mu.Unlock()

	before := source.callCount("s1")
	time.Sleep(30 * time.Millisecond)
	if after := source.callCount("s1"); after != before {
		t.Errorf("ticks continued after Stop: %d -> %d", before, after)
	}
}

// blockingSource parks Observe until released, modelling a slow upstream
// call caught mid-tick by Stop.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSource) Observe(ctx context.Context, sessionID string) (*observation.RawObservation, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return &observation.RawObservation{FrameWidth: 640}, nil
}

func TestManagerStopWaitsForInFlightTick(t *testing.T) {
	source := &blockingSource{entered: make(chan struct{}, 1), release: make(chan struct{})}
	pipeline := NewPipeline(&memAppender{}, nil, zerolog.Nop())
	mgr := NewManager(pipeline, source, 5*time.Millisecond, nil, zerolog.Nop())

	mgr.Start("s1")
	<-source.entered // a tick is now parked inside Observe

	stopped := make(chan struct{})
	go func() {
		mgr.Stop("s1")
		close(stopped)
	}()

	// Let the parked tick finish while Stop is waiting. Its classification
	// runs after cancellation, so eviction must be ordered behind it.
	close(source.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	pipeline.classifier.mu.Lock()
	sessions := len(pipeline.classifier.sessions)
	pipeline.classifier.mu.Unlock()
	if sessions != 0 {
		t.Errorf("classifier retains %d session entries after Stop, want 0", sessions)
	}

	pipeline.throttle.mu.Lock()
	throttled := len(pipeline.throttle.last)
	pipeline.throttle.mu.Unlock()
	if throttled != 0 {
		t.Errorf("throttle retains %d session entries after Stop, want 0", throttled)
	}
}

func TestManagerStopUnknownSession(t *testing.T) {
	mgr := NewManager(NewPipeline(&memAppender{}, nil, zerolog.Nop()), newCountingSource(), time.Second, nil, zerolog.Nop())
	mgr.Stop("nope") // must not panic
}

func TestManagerShutdownStopsAll(t *testing.T) {
	source := newCountingSource()
	mgr := NewManager(NewPipeline(&memAppender{}, nil, zerolog.Nop()), source, 5*time.Millisecond, nil, zerolog.Nop())

	mgr.Start("s1")
	mgr.Start("s2")
	waitFor(t, func() bool { return source.callCount("s1") >= 1 && source.callCount("s2") >= 1 })
	mgr.Shutdown()

	mgr.mu.Lock()
	running := len(mgr.runners)
	mgr.mu.Unlock()
	if running != 0 {
		t.Errorf("%d running sessions after Shutdown, want 0", running)
	}
}
