// Package marker provides map markers that can drop onto the map with a
// bounce animation.
//
// Bouncing wraps the plain Base marker: its add and remove hooks run the
// Base hooks and add the bounce behaviour around them.
package marker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/bouncemarker/internal/bounce"
	"github.com/OCAP2/bouncemarker/internal/frame"
	"github.com/OCAP2/bouncemarker/internal/mapview"
	"github.com/OCAP2/bouncemarker/pkg/core"
)

// ErrNotOnMap is returned when bouncing a marker that is not on a map.
var ErrNotOnMap = errors.New("marker is not on a map")

// Bouncing is a marker with bounce animations.
type Bouncing struct {
	*Base
	opts     core.MarkerOptions
	animator *bounce.Animator
	logger   *slog.Logger
}

// Dependencies holds what a Bouncing marker needs besides its own options.
type Dependencies struct {
	Scheduler frame.Scheduler
	Logger    *slog.Logger
	// Observer receives every applied animation frame (optional).
	Observer func(name string, fi bounce.FrameInfo)
}

// New creates a bouncing marker at ll.
func New(name string, ll core.LatLng, opts core.MarkerOptions, deps Dependencies) (*Bouncing, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("marker", name)

	b := &Bouncing{
		Base:   NewBase(name, ll),
		opts:   opts,
		logger: logger,
	}

	animOpts := []bounce.Option{
		bounce.WithName(name),
		bounce.WithLogger(logger),
	}
	if deps.Observer != nil {
		observer := deps.Observer
		animOpts = append(animOpts, bounce.WithFrameObserver(func(fi bounce.FrameInfo) {
			observer(name, fi)
		}))
	}

	animator, err := bounce.New(b.Base, deps.Scheduler, animOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating animator for %s: %w", name, err)
	}
	b.animator = animator
	return b, nil
}

// Options returns the marker options.
func (b *Bouncing) Options() core.MarkerOptions {
	return b.opts
}

// Animator exposes the animation state for inspection.
func (b *Bouncing) Animator() *bounce.Animator {
	return b.animator
}

// OnAdd runs the plain marker add hook, then bounces if BounceOnAdd is set.
func (b *Bouncing) OnAdd(m *mapview.Map) {
	b.Base.OnAdd(m)

	if !b.opts.BounceOnAdd {
		return
	}
	if err := b.Bounce(b.opts.BounceOnAddOptions, b.opts.BounceOnAddCallback); err != nil {
		b.logger.Error("Bounce on add failed", "error", err)
	}
}

// OnRemove stops any running animation, then runs the plain marker remove hook.
func (b *Bouncing) OnRemove(m *mapview.Map) {
	b.StopBounce()
	b.Base.OnRemove(m)
}

// Bounce drops the marker onto its current position. callback may be nil.
func (b *Bouncing) Bounce(opts core.BounceOptions, callback func()) error {
	m := b.Map()
	if m == nil {
		return fmt.Errorf("%w: %s", ErrNotOnMap, b.Name())
	}
	return b.animator.Bounce(m, opts, callback)
}

// StopBounce stops the animation and puts the marker on its true position.
func (b *Bouncing) StopBounce() {
	b.animator.Stop()
}
