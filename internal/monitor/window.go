package monitor

// Window counts how many consecutive ticks a momentary condition has held.
// It absorbs single-frame flicker from the upstream model: a condition only
// becomes an event candidate once it has held for a full run length.
//
// Window is not safe for concurrent use; each counter is owned by its
// session's tick sequence.
type Window struct {
	count int
}

// Observe records one tick. The counter increments when the condition held
// and resets to zero when it did not; the post-update count is returned.
func (w *Window) Observe(held bool) int {
	if held {
		w.count++
	} else {
		w.count = 0
	}
	return w.count
}

// Reset zeroes the counter. Called after the condition is promoted to an
// event candidate.
func (w *Window) Reset() {
	w.count = 0
}

// Count returns the current consecutive-tick count.
func (w *Window) Count() int {
	return w.count
}
