// Package frame provides the frame-scheduling primitive animations are driven by.
//
// A Scheduler behaves like a browser's requestAnimationFrame: a callback
// requested now runs once, on the next frame, and receives that frame's
// timestamp. Callbacks requested while a frame is running wait for the
// following frame.
package frame

import (
	"sync"
	"time"
)

// Handle identifies a requested frame callback so it can be cancelled.
// The zero Handle is never issued.
type Handle uint64

// Callback is run once per request with the frame timestamp.
type Callback func(now time.Time)

// Scheduler requests and cancels frame callbacks.
type Scheduler interface {
	Request(cb Callback) Handle
	Cancel(h Handle)
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

type request struct {
	handle Handle
	cb     Callback
}

// queue holds pending callbacks and runs them in request order.
type queue struct {
	mu      sync.Mutex
	next    Handle
	pending []request
	// handles of the batch currently running; cancelling one skips it
	running map[Handle]struct{}
}

func (q *queue) request(cb Callback) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.pending = append(q.pending, request{handle: q.next, cb: cb})
	return q.next
}

func (q *queue) cancel(h Handle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.pending {
		if r.handle == h {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
	delete(q.running, h)
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// run executes the callbacks pending at call time and returns how many ran.
func (q *queue) run(now time.Time) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.running = make(map[Handle]struct{}, len(batch))
	for _, r := range batch {
		q.running[r.handle] = struct{}{}
	}
	q.mu.Unlock()

	ran := 0
	for _, r := range batch {
		q.mu.Lock()
		_, ok := q.running[r.handle]
		delete(q.running, r.handle)
		q.mu.Unlock()
		if !ok {
			continue
		}
		r.cb(now)
		ran++
	}
	return ran
}
