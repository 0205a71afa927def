package domain

import (
	"encoding/json"
	"time"
)

// Type identifies an anomaly event type.
type Type string

// The closed set of anomaly event types produced by the classifier.
const (
	TypeLookingAway   Type = "LOOKING_AWAY"
	TypeNoFace        Type = "NO_FACE"
	TypeMultipleFaces Type = "MULTIPLE_FACES"
	TypePhoneDetected Type = "PHONE_DETECTED"
	TypeBookDetected  Type = "BOOK_DETECTED"
)

// KnownTypes returns the known event types in report order.
func KnownTypes() []Type {
	return []Type{TypeLookingAway, TypeNoFace, TypeMultipleFaces, TypePhoneDetected, TypeBookDetected}
}

// Known reports whether t is one of the five known event types.
func (t Type) Known() bool {
	switch t {
	case TypeLookingAway, TypeNoFace, TypeMultipleFaces, TypePhoneDetected, TypeBookDetected:
		return true
	}
	return false
}

// Event is one anomaly recorded against a session. Events are immutable once
// appended and are only removed together with their session.
//
// EndedAt is carried for the wire format and report detail but is never set
// by the monitoring pipeline; anomalies are recorded as instants.
type Event struct {
	ID        string          `json:"id,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Type      Type            `json:"type"`
	StartedAt time.Time       `json:"startTime"`
	EndedAt   *time.Time      `json:"endTime"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
