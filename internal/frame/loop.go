package frame

import (
	"context"
	"time"
)

// DefaultFPS is the frame rate used when a Loop is created with fps <= 0.
const DefaultFPS = 60

// Loop is a real-time Scheduler that runs pending callbacks on every tick
// of a ticker, all from the goroutine that called Run.
type Loop struct {
	q        queue
	interval time.Duration
}

// NewLoop creates a Loop ticking fps times per second.
func NewLoop(fps int) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{interval: time.Second / time.Duration(fps)}
}

// Request schedules cb for the next tick.
func (l *Loop) Request(cb Callback) Handle {
	return l.q.request(cb)
}

// Cancel removes a pending callback. Unknown handles are ignored.
func (l *Loop) Cancel(h Handle) {
	l.q.cancel(h)
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Interval returns the time between two frames.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run drives frames until ctx is done and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C:
			l.q.run(t)
		}
	}
}
