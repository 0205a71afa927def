// Package scoring derives the integrity score from a session's event log.
// Scoring is a pure function of the events: deductions are recomputed on
// every call and never stored independently.
package scoring

import (
	"time"

	eventdomain "interview-integrity/backend/internal/event/domain"
)

// StartScore is the score of a session with no recorded anomalies.
const StartScore = 100

// penalties maps each known event type to its fixed deduction.
var penalties = map[eventdomain.Type]int{
	eventdomain.TypeLookingAway:   2,
	eventdomain.TypeNoFace:        5,
	eventdomain.TypeMultipleFaces: 10,
	eventdomain.TypeBookDetected:  8,
	eventdomain.TypePhoneDetected: 15,
}

// Deduction is a single scoring penalty attributable to one event.
type Deduction struct {
	Type  eventdomain.Type `json:"type"`
	Value int              `json:"value"` // negative
	Time  time.Time        `json:"time"`
}

// Result is the outcome of scoring one event log.
type Result struct {
	FinalScore int
	Deductions []Deduction
}

// Score applies the fixed per-type penalty for every event and clamps the
// final score at zero. Events of unknown types carry no penalty and produce
// no deduction, so logs written by newer producers still score. The total is
// order-independent; the deduction list preserves input (chronological)
// order for display.
func Score(events []*eventdomain.Event) Result {
	score := StartScore
	deductions := make([]Deduction, 0, len(events))
	for _, e := range events {
		penalty, known := penalties[e.Type]
		if !known {
			continue
		}
		score -= penalty
		deductions = append(deductions, Deduction{
			Type:  e.Type,
			Value: -penalty,
			Time:  e.StartedAt,
		})
	}
	if score < 0 {
		score = 0
	}
	return Result{FinalScore: score, Deductions: deductions}
}
