package monitor

import (
	"encoding/json"
	"math"
	"strings"
	"sync"

	eventdomain "interview-integrity/backend/internal/event/domain"
	"interview-integrity/backend/internal/observation"
)

// Detection thresholds. Run-length thresholds gate the momentary conditions
// (no face, gaze) so classifier flicker does not become events; the rarer
// multi-face and object conditions fire on first occurrence.
const (
	noFaceRunLength    = 10 // consecutive zero-face ticks before NO_FACE
	awayRunLength      = 5  // consecutive off-center ticks before LOOKING_AWAY
	awayOffsetPx       = 100.0
	phoneMinConfidence = 0.5
	bookMinConfidence  = 0.6

	// defaultFrameWidth is assumed when the upstream model does not report
	// the frame size (the capture pipeline records at 640x480).
	defaultFrameWidth = 640.0
)

const (
	classCellPhone = "cell phone"
	classBook      = "book"
)

// Candidate is an anomaly condition detected on one tick, before throttling.
type Candidate struct {
	Type eventdomain.Type
	Meta json.RawMessage
}

// windows holds the run-length counters for one session, one per monitored
// condition.
type windows struct {
	noFace Window
	away   Window
}

// Classifier maps one frame's raw observations to zero or more event
// candidates, keeping per-session run-length state between ticks.
//
// The map is mutex-guarded so sessions can tick in parallel; within a session
// the caller must not interleave Classify calls.
type Classifier struct {
	mu       sync.Mutex
	sessions map[string]*windows
}

// NewClassifier returns a Classifier with no session state.
func NewClassifier() *Classifier {
	return &Classifier{sessions: make(map[string]*windows)}
}

func (c *Classifier) state(sessionID string) *windows {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.sessions[sessionID]
	if w == nil {
		w = &windows{}
		c.sessions[sessionID] = w
	}
	return w
}

// Classify consumes one observation for the session and returns the event
// candidates it produced, updating the session's run-length counters.
func (c *Classifier) Classify(sessionID string, obs *observation.RawObservation) []Candidate {
	if obs == nil {
		return nil
	}
	w := c.state(sessionID)

	var out []Candidate
	faces := obs.FaceCount()
	if faces == 0 {
		if w.noFace.Observe(true) >= noFaceRunLength {
			out = append(out, Candidate{Type: eventdomain.TypeNoFace})
			w.noFace.Reset()
		}
	} else {
		w.noFace.Observe(false)
		if faces > 1 {
			out = append(out, Candidate{Type: eventdomain.TypeMultipleFaces})
		}
	}

	// Gaze deviation is measurable only with exactly one face; the away
	// counter holds across ticks where it cannot be measured and resets only
	// on a centered face.
	if faces == 1 && obs.PrimaryFace != nil {
		center := obs.PrimaryFace.CenterX()
		frame := obs.FrameWidth
		if frame <= 0 {
			frame = defaultFrameWidth
		}
		offset := center - frame/2
		if math.Abs(offset) > awayOffsetPx {
			if w.away.Observe(true) >= awayRunLength {
				meta, _ := json.Marshal(map[string]float64{"faceCenterX": center, "offsetPx": offset})
				out = append(out, Candidate{Type: eventdomain.TypeLookingAway, Meta: meta})
				w.away.Reset()
			}
		} else {
			w.away.Observe(false)
		}
	}

	for _, d := range obs.Objects {
		switch strings.ToLower(d.Class) {
		case classCellPhone:
			if d.Confidence > phoneMinConfidence {
				meta, _ := json.Marshal(d)
				out = append(out, Candidate{Type: eventdomain.TypePhoneDetected, Meta: meta})
			}
		case classBook:
			if d.Confidence > bookMinConfidence {
				meta, _ := json.Marshal(d)
				out = append(out, Candidate{Type: eventdomain.TypeBookDetected, Meta: meta})
			}
		}
	}
	return out
}

// Evict drops all run-length state for the session. Called at session end.
func (c *Classifier) Evict(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}
