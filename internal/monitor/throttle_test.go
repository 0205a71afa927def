package monitor

import (
	"testing"
	"time"

	eventdomain "interview-integrity/backend/internal/event/domain"
)

func TestThrottleFirstEventAccepted(t *testing.T) {
	th := NewThrottle(10 * time.Second)
	now := time.Now()
	if !th.ShouldEmit("s1", eventdomain.TypeNoFace, now) {
		t.Fatal("first event of a type should be accepted")
	}
}

func TestThrottleSuppressesWithinCooldown(t *testing.T) {
	th := NewThrottle(10 * time.Second)
	now := time.Now()
	th.ShouldEmit("s1", eventdomain.TypeNoFace, now)

	if th.ShouldEmit("s1", eventdomain.TypeNoFace, now.Add(5*time.Second)) {
		t.Error("same type within cooldown should be suppressed")
	}
	if !th.ShouldEmit("s1", eventdomain.TypeNoFace, now.Add(10*time.Second)) {
		t.Error("same type at cooldown boundary should be accepted")
	}
}

func TestThrottleSuppressedEventDoesNotExtendCooldown(t *testing.T) {
	th := NewThrottle(10 * time.Second)
	now := time.Now()
	th.ShouldEmit("s1", eventdomain.TypeNoFace, now)
	th.ShouldEmit("s1", eventdomain.TypeNoFace, now.Add(9*time.Second))

	// Cooldown is measured from the last accepted event, not the last attempt.
	if !th.ShouldEmit("s1", eventdomain.TypeNoFace, now.Add(11*time.Second)) {
		t.Error("cooldown should be measured from the accepted event")
	}
}

func TestThrottleIsolatesTypesAndSessions(t *testing.T) {
	th := NewThrottle(10 * time.Second)
	now := time.Now()
	th.ShouldEmit("s1", eventdomain.TypeNoFace, now)

	if !th.ShouldEmit("s1", eventdomain.TypePhoneDetected, now) {
		t.Error("different type in the same session should be accepted")
	}
	if !th.ShouldEmit("s2", eventdomain.TypeNoFace, now) {
		t.Error("same type in a different session should be accepted")
	}
}

func TestThrottleEvictClearsState(t *testing.T) {
	th := NewThrottle(10 * time.Second)
	now := time.Now()
	th.ShouldEmit("s1", eventdomain.TypeNoFace, now)
	th.Evict("s1")

	if !th.ShouldEmit("s1", eventdomain.TypeNoFace, now.Add(time.Second)) {
		t.Error("evicted session should accept immediately")
	}
}
