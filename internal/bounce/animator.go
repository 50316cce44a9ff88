// Package bounce animates a map marker dropping onto its position with an
// ease-out-bounce curve.
//
// An Animator owns the animation state of one marker. Bounce records the
// marker's true position and the map's projected center, computes the drop
// point and then advances one step per frame of a frame.Scheduler until the
// requested number of loops has played, at which point the marker is snapped
// back onto its true position and the callback runs. Stop cancels the pending
// frame and snaps the marker immediately.
package bounce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/bouncemarker/internal/frame"
	"github.com/OCAP2/bouncemarker/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrInvalidOptions is returned for a negative duration or a loop count below -1.
	ErrInvalidOptions = errors.New("invalid bounce options")
	// ErrNoMap is returned when Bounce is called without a map.
	ErrNoMap = errors.New("bounce requires a map")
)

// Map is the part of the host map an animation reads: projection and
// container/geographic conversion at the current view.
type Map interface {
	LatLngToContainerPoint(ll core.LatLng) geom.XY
	ContainerPointToLatLng(p geom.XY) core.LatLng
	Project(ll core.LatLng) geom.XY
	Center() core.LatLng
	Bounds() core.Bounds
}

// Target is the marker being animated.
type Target interface {
	LatLng() core.LatLng
	SetLatLng(ll core.LatLng)
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// FrameInfo describes one applied animation step.
type FrameInfo struct {
	Time           time.Time
	Progress       float64
	Delta          float64
	DropPoint      geom.XY
	Position       core.LatLng
	RemainingLoops int
}

// Snapshot is a read-only view of the animation state.
type Snapshot struct {
	Active         bool
	TruePosition   core.LatLng
	DropPoint      geom.XY
	Progress       float64
	RemainingLoops int
}

// Option configures an Animator.
type Option func(*Animator)

// WithLogger sets the logger. *slog.Logger satisfies Logger.
func WithLogger(l Logger) Option {
	return func(a *Animator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithName labels log lines and metrics with the marker name.
func WithName(name string) Option {
	return func(a *Animator) {
		a.name = name
	}
}

// WithFrameObserver registers fn to be called after every applied frame.
func WithFrameObserver(fn func(FrameInfo)) Option {
	return func(a *Animator) {
		a.observer = fn
	}
}

// state of one Bounce call
type state struct {
	m        Map
	truePos  core.LatLng
	truePx   geom.XY
	origin   geom.XY // projected view center when the animation started
	startPx  geom.XY
	drop     geom.XY
	start    time.Time // zero until the first frame
	duration time.Duration
	loops    int
	progress float64
	callback func()
}

// Animator drives bounce animations for one target. Bounce and Stop may be
// called from any goroutine; frame steps run on the scheduler's goroutine.
type Animator struct {
	target   Target
	sched    frame.Scheduler
	logger   Logger
	observer func(FrameInfo)
	name     string

	mu      sync.Mutex
	st      *state
	truePos *core.LatLng
	handle  frame.Handle

	// OTEL metrics
	started   metric.Int64Counter
	completed metric.Int64Counter
	stopped   metric.Int64Counter
	frames    metric.Int64Counter
	attrs     metric.MeasurementOption
}

// New creates an Animator for target driven by sched.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(target Target, sched frame.Scheduler, opts ...Option) (*Animator, error) {
	a := &Animator{
		target: target,
		sched:  sched,
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.attrs = metric.WithAttributes(attribute.String("marker", a.name))

	m := meter()
	var err error

	a.started, err = m.Int64Counter(
		"bounce.animations.started",
		metric.WithDescription("Total bounce animations started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating started counter: %w", err)
	}

	a.completed, err = m.Int64Counter(
		"bounce.animations.completed",
		metric.WithDescription("Total bounce animations that played all their loops"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}

	a.stopped, err = m.Int64Counter(
		"bounce.animations.stopped",
		metric.WithDescription("Total bounce animations stopped before completion"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stopped counter: %w", err)
	}

	a.frames, err = m.Int64Counter(
		"bounce.frames",
		metric.WithDescription("Total animation frames applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	return a, nil
}

// Normalize applies defaults to zero-valued fields and validates opts.
func Normalize(opts core.BounceOptions) (core.BounceOptions, error) {
	if opts.Duration < 0 {
		return opts, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidOptions, opts.Duration)
	}
	if opts.Loop < core.InfiniteLoop {
		return opts, fmt.Errorf("%w: loop must be -1 or positive, got %d", ErrInvalidOptions, opts.Loop)
	}
	if opts.Duration == 0 {
		opts.Duration = core.DefaultBounceDuration
	}
	if opts.Loop == 0 {
		opts.Loop = core.DefaultBounceLoop
	}
	return opts, nil
}

// DropPoint returns the container point a marker at truePos is dropped from,
// along with the container point of truePos itself. A nil or negative height
// drops from the top of the visible map.
func DropPoint(m Map, truePos core.LatLng, height *float64) (drop, truePx geom.XY) {
	truePx = m.LatLngToContainerPoint(truePos)
	var topY float64
	if height == nil || *height < 0 {
		topY = m.LatLngToContainerPoint(m.Bounds().NorthEast).Y
	} else {
		topY = truePx.Y - *height
	}
	return geom.XY{X: truePx.X, Y: topY}, truePx
}

// Bounce starts a new animation on m. A running animation is cancelled and
// its marker restored first. callback may be nil; it runs once, after the
// marker is back on its true position, and never for infinite loops.
func (a *Animator) Bounce(m Map, opts core.BounceOptions, callback func()) error {
	if m == nil {
		return ErrNoMap
	}
	opts, err := Normalize(opts)
	if err != nil {
		return err
	}

	a.mu.Lock()
	restarted := a.cancelLocked()

	truePos := a.target.LatLng()
	drop, truePx := DropPoint(m, truePos, opts.Height)
	st := &state{
		m:        m,
		truePos:  truePos,
		truePx:   truePx,
		origin:   m.Project(m.Center()),
		startPx:  drop,
		drop:     drop,
		duration: opts.Duration,
		loops:    opts.Loop,
		callback: callback,
	}
	a.st = st
	a.truePos = &truePos
	a.handle = a.sched.Request(func(now time.Time) { a.step(st, now) })
	a.mu.Unlock()

	if restarted {
		a.stopped.Add(context.Background(), 1, a.attrs)
	}
	a.started.Add(context.Background(), 1, a.attrs)
	a.logger.Debug("Bounce started",
		"marker", a.name,
		"position", truePos.String(),
		"duration", opts.Duration,
		"loop", opts.Loop,
		"dropY", drop.Y,
		"restarted", restarted,
	)
	return nil
}

// Stop cancels the pending frame and puts the marker back on the true
// position recorded by the last Bounce, if there ever was one.
func (a *Animator) Stop() {
	a.mu.Lock()
	wasActive := a.cancelLocked()
	if a.truePos != nil {
		a.target.SetLatLng(*a.truePos)
	}
	a.mu.Unlock()

	if wasActive {
		a.stopped.Add(context.Background(), 1, a.attrs)
		a.logger.Debug("Bounce stopped", "marker", a.name)
	}
}

// cancelLocked cancels the pending frame, restores the marker if an
// animation is active, and reports whether one was.
func (a *Animator) cancelLocked() bool {
	a.sched.Cancel(a.handle)
	a.handle = 0
	if a.st == nil {
		return false
	}
	a.target.SetLatLng(a.st.truePos)
	a.st = nil
	return true
}

// Active reports whether an animation is running.
func (a *Animator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.st != nil
}

// Snapshot returns the current animation state.
func (a *Animator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	var s Snapshot
	if a.truePos != nil {
		s.TruePosition = *a.truePos
	}
	if a.st != nil {
		s.Active = true
		s.DropPoint = a.st.drop
		s.Progress = a.st.progress
		s.RemainingLoops = a.st.loops
	}
	return s
}

// step advances st by one frame. Frames of a cancelled or replaced
// animation are ignored.
func (a *Animator) step(st *state, now time.Time) {
	a.mu.Lock()
	if a.st != st {
		a.mu.Unlock()
		return
	}

	if st.start.IsZero() {
		st.start = now
	}
	progress := clampUnit(float64(now.Sub(st.start)) / float64(st.duration))
	delta := EaseOutBounce(progress)

	center := st.m.Project(st.m.Center())
	st.drop.Y = st.startPx.Y + (st.truePx.Y-st.startPx.Y)*delta - (center.Y - st.origin.Y)
	st.drop.X = st.startPx.X - (center.X - st.origin.X)
	pos := st.m.ContainerPointToLatLng(st.drop)
	a.target.SetLatLng(pos)
	st.progress = progress

	info := FrameInfo{
		Time:           now,
		Progress:       progress,
		Delta:          delta,
		DropPoint:      st.drop,
		Position:       pos,
		RemainingLoops: st.loops,
	}

	finished := false
	if progress == 1 {
		st.start = now
		st.progress = 0
		if st.loops > 0 {
			st.loops--
		}
		if st.loops == 0 {
			a.target.SetLatLng(st.truePos)
			a.st = nil
			a.handle = 0
			finished = true
		}
	}
	if !finished {
		a.handle = a.sched.Request(func(t time.Time) { a.step(st, t) })
	}
	a.mu.Unlock()

	a.frames.Add(context.Background(), 1, a.attrs)
	if a.observer != nil {
		a.observer(info)
	}

	if finished {
		a.completed.Add(context.Background(), 1, a.attrs)
		a.logger.Debug("Bounce completed", "marker", a.name, "position", st.truePos.String())
		if st.callback != nil {
			st.callback()
		}
	}
}
