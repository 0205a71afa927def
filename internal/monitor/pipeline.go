// Package monitor turns the noisy per-frame observation stream into
// discrete, rate-limited anomaly events: run-length windows and the
// classifier produce candidates, the throttle deduplicates them, and
// accepted events are appended to the session's event log.
package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	eventdomain "interview-integrity/backend/internal/event/domain"
	"interview-integrity/backend/internal/observability/metrics"
	"interview-integrity/backend/internal/observation"
)

// Appender appends one anomaly event to a session's log.
// Implemented by *event.Log.
type Appender interface {
	Append(ctx context.Context, sessionID string, e *eventdomain.Event) (*eventdomain.Event, error)
}

// Pipeline runs classify → throttle → append for one observation. It holds
// no scheduling of its own, so ticks can be driven by the Manager, by tests,
// or by a batch replay.
type Pipeline struct {
	classifier *Classifier
	throttle   *Throttle
	log        Appender
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	nowF       func() time.Time
}

// NewPipeline returns a Pipeline appending accepted events via log.
// m may be nil.
func NewPipeline(log Appender, m *metrics.Metrics, logger zerolog.Logger) *Pipeline {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Pipeline{
		classifier: NewClassifier(),
		throttle:   NewThrottle(DefaultCooldown),
		log:        log,
		metrics:    m,
		logger:     logger,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// Tick processes one observation for the session. A nil observation means
// the upstream classifier had nothing for this tick (missing frame or a
// transient failure already logged by the caller); the tick is skipped
// entirely so a perception gap is never mistaken for a detection of absence.
//
// Candidates that pass the throttle are appended to the event log. An append
// failure is returned to the caller, but the window and throttle state have
// already advanced: the run-length logic stays consistent with real time and
// the event is lost rather than buffered.
func (p *Pipeline) Tick(ctx context.Context, sessionID string, obs *observation.RawObservation) error {
	if obs == nil {
		p.metrics.TicksSkipped.Inc()
		return nil
	}
	p.metrics.TicksTotal.Inc()

	candidates := p.classifier.Classify(sessionID, obs)
	if len(candidates) == 0 {
		return nil
	}
	p.metrics.CandidatesTotal.Add(float64(len(candidates)))

	now := p.nowF()
	var firstErr error
	for _, cand := range candidates {
		if !p.throttle.ShouldEmit(sessionID, cand.Type, now) {
			p.metrics.EventsThrottled.WithLabelValues(string(cand.Type)).Inc()
			continue
		}
		e := &eventdomain.Event{
			Type:      cand.Type,
			StartedAt: now,
			Meta:      cand.Meta,
		}
		if _, err := p.log.Append(ctx, sessionID, e); err != nil {
			p.metrics.AppendFailures.Inc()
			p.logger.Error().Err(err).
				Str("sessionId", sessionID).
				Str("type", string(cand.Type)).
				Msg("event append failed; event lost")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.metrics.EventsEmitted.WithLabelValues(string(cand.Type)).Inc()
	}
	return firstErr
}

// EndSession evicts all classifier and throttle state for the session.
// Must be called after the session's tick source has stopped.
func (p *Pipeline) EndSession(sessionID string) {
	p.classifier.Evict(sessionID)
	p.throttle.Evict(sessionID)
}
