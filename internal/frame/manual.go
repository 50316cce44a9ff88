package frame

import (
	"sync"
	"time"
)

// Manual is a deterministic Scheduler and Clock. Frames only happen when
// Step or Advance is called, which makes it suitable for tests and for
// simulations that must not depend on wall-clock time.
type Manual struct {
	q queue

	mu  sync.RWMutex
	now time.Time
}

// NewManual creates a Manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Request schedules cb for the next Step.
func (m *Manual) Request(cb Callback) Handle {
	return m.q.request(cb)
}

// Cancel removes a pending callback. Unknown handles are ignored.
func (m *Manual) Cancel(h Handle) {
	m.q.cancel(h)
}

// Now returns the scheduler's current time.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set moves the clock to t without running a frame.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Step runs one frame at the current time and returns the number of
// callbacks that ran.
func (m *Manual) Step() int {
	return m.q.run(m.Now())
}

// Advance moves the clock forward by d and runs one frame.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
	return m.Step()
}

// Pending returns the number of callbacks waiting for the next frame.
func (m *Manual) Pending() int {
	return m.q.len()
}
