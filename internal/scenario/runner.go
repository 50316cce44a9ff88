package scenario

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/OCAP2/bouncemarker/internal/bounce"
	"github.com/OCAP2/bouncemarker/internal/dispatcher"
	"github.com/OCAP2/bouncemarker/internal/frame"
	"github.com/OCAP2/bouncemarker/internal/geo"
	"github.com/OCAP2/bouncemarker/internal/legacy"
	"github.com/OCAP2/bouncemarker/internal/logging"
	"github.com/OCAP2/bouncemarker/internal/mapview"
	"github.com/OCAP2/bouncemarker/internal/marker"
	"github.com/OCAP2/bouncemarker/internal/storage"
	"github.com/OCAP2/bouncemarker/pkg/core"
)

// DefaultStart is the simulated start time when none is given.
var DefaultStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// MarkerResult summarises one marker after a run.
type MarkerResult struct {
	Position  core.LatLng
	OnMap     bool
	Bouncing  bool
	Frames    int
	Callbacks int
}

// Result is the outcome of a run.
type Result struct {
	Run      core.Run
	Frames   int // frame callbacks executed
	Steps    int // timeline steps dispatched
	Markers  map[string]MarkerResult
	Failures []string // timeline steps whose command failed
}

// Runner executes a scenario on a manual frame scheduler. A Runner is
// single-use.
type Runner struct {
	sc       *Scenario
	backend  storage.Backend
	logger   *slog.Logger
	start    time.Time
	defaults core.BounceOptions

	sched   *frame.Manual
	m       *mapview.Map
	disp    *dispatcher.Dispatcher
	markers map[string]*marker.Bouncing
	stats   map[string]*MarkerResult
	run     *core.Run
	result  Result
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger; log records carry the simulated time as "t".
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStart sets the simulated start time.
func WithStart(t time.Time) Option {
	return func(r *Runner) {
		r.start = t
	}
}

// WithDefaultOptions sets the options used by bounces that specify none.
func WithDefaultOptions(opts core.BounceOptions) Option {
	return func(r *Runner) {
		r.defaults = opts
	}
}

// NewRunner prepares sc to be recorded into backend. The backend must be
// initialised; the runner starts and ends one run on it.
func NewRunner(sc *Scenario, backend storage.Backend, opts ...Option) (*Runner, error) {
	r := &Runner{
		sc:       sc,
		backend:  backend,
		logger:   slog.Default(),
		start:    DefaultStart,
		defaults: core.DefaultBounceOptions(),
		markers:  make(map[string]*marker.Bouncing),
		stats:    make(map[string]*MarkerResult),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.sched = frame.NewManual(r.start)
	r.logger = logging.WithClock(r.logger, r.sched, r.start).With("scenario", sc.Name)

	view := geo.NewViewport(sc.Center(), sc.View.Zoom, sc.View.Width, sc.View.Height)
	r.m = mapview.New(view, r.logger)

	disp, err := dispatcher.New(r.logger)
	if err != nil {
		return nil, err
	}
	r.disp = disp
	r.registerHandlers()

	for _, decl := range sc.Markers {
		if err := r.newMarker(decl); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Runner) newMarker(decl Marker) error {
	name := decl.Name
	stats := &MarkerResult{}
	r.stats[name] = stats

	onAdd := decl.BounceOnAddOptions
	if isZero(onAdd) {
		onAdd = r.defaults
	}
	opts := core.MarkerOptions{
		BounceOnAdd:         decl.BounceOnAdd,
		BounceOnAddOptions:  onAdd,
		BounceOnAddCallback: r.completion(name),
	}
	pos, _ := r.sc.Position(name)

	mk, err := marker.New(name, pos, opts, marker.Dependencies{
		Scheduler: r.sched,
		Logger:    r.logger,
		Observer:  r.recordFrame,
	})
	if err != nil {
		return err
	}
	r.markers[name] = mk
	return nil
}

// completion returns the callback recording that name finished bouncing.
func (r *Runner) completion(name string) func() {
	return func() {
		r.stats[name].Callbacks++
		r.record(&core.Event{Marker: name, Kind: core.EventCompleted})
	}
}

func (r *Runner) recordFrame(name string, fi bounce.FrameInfo) {
	r.stats[name].Frames++
	f := &core.Frame{
		Marker:         name,
		Time:           fi.Time,
		Progress:       fi.Progress,
		Delta:          fi.Delta,
		DropX:          fi.DropPoint.X,
		DropY:          fi.DropPoint.Y,
		Position:       fi.Position,
		RemainingLoops: fi.RemainingLoops,
	}
	if err := r.backend.RecordFrame(f); err != nil {
		r.logger.Error("Failed to record frame", "marker", name, "error", err)
	}
}

func (r *Runner) record(e *core.Event) {
	e.Time = r.sched.Now()
	if err := r.backend.RecordEvent(e); err != nil {
		r.logger.Error("Failed to record event", "kind", e.Kind, "marker", e.Marker, "error", err)
	}
}

func (r *Runner) registerHandlers() {
	markerOpts := []dispatcher.Option{dispatcher.RequireMarker(), dispatcher.Logged()}

	r.disp.Register(CommandAdd, func(e dispatcher.Event) (any, error) {
		if err := r.m.AddLayer(r.markers[e.Marker]); err != nil {
			return nil, err
		}
		r.record(&core.Event{Marker: e.Marker, Kind: core.EventAdded})
		return nil, nil
	}, markerOpts...)

	r.disp.Register(CommandRemove, func(e dispatcher.Event) (any, error) {
		if err := r.m.RemoveLayer(e.Marker); err != nil {
			return nil, err
		}
		r.record(&core.Event{Marker: e.Marker, Kind: core.EventRemoved})
		return nil, nil
	}, markerOpts...)

	r.disp.Register(CommandBounce, func(e dispatcher.Event) (any, error) {
		opts, err := r.bounceArgs(e)
		if err != nil {
			return nil, err
		}
		if err := r.markers[e.Marker].Bounce(opts, r.completion(e.Marker)); err != nil {
			return nil, err
		}
		r.record(&core.Event{Marker: e.Marker, Kind: core.EventBounce, Detail: describeOptions(opts)})
		return nil, nil
	}, markerOpts...)

	r.disp.Register(CommandStop, func(e dispatcher.Event) (any, error) {
		r.markers[e.Marker].StopBounce()
		r.record(&core.Event{Marker: e.Marker, Kind: core.EventStopped})
		return nil, nil
	}, markerOpts...)

	r.disp.Register(CommandPan, func(e dispatcher.Event) (any, error) {
		dx, dy, ok := panArgs(e.Args)
		if !ok {
			return nil, fmt.Errorf("pan needs [dx, dy], got %v", e.Args)
		}
		r.m.PanBy(dx, dy)
		r.record(&core.Event{Kind: core.EventPanned, Detail: fmt.Sprintf("dx=%g dy=%g", dx, dy)})
		return nil, nil
	}, dispatcher.Logged())
}

// bounceArgs picks the options of a bounce step. Explicit options win over
// positional arguments.
func (r *Runner) bounceArgs(e dispatcher.Event) (core.BounceOptions, error) {
	if len(e.Args) == 0 {
		return r.defaults, nil
	}
	if len(e.Args) == 1 {
		if opts, ok := e.Args[0].(*core.BounceOptions); ok && opts != nil {
			return *opts, nil
		}
	}
	opts, _, err := legacy.Translate(e.Args...)
	return opts, err
}

func isZero(opts core.BounceOptions) bool {
	return opts.Duration == 0 && opts.Height == nil && opts.Loop == 0
}

func describeOptions(opts core.BounceOptions) string {
	height := "top"
	if opts.Height != nil && *opts.Height >= 0 {
		height = fmt.Sprintf("%gpx", *opts.Height)
	}
	return fmt.Sprintf("duration=%s height=%s loop=%d", opts.Duration, height, opts.Loop)
}

// Map returns the simulated map.
func (r *Runner) Map() *mapview.Map {
	return r.m
}

// Marker returns a declared marker.
func (r *Runner) Marker(name string) (*marker.Bouncing, bool) {
	mk, ok := r.markers[name]
	return mk, ok
}

// Run plays the whole timeline, stepping one frame per interval with a last
// frame at exactly the scenario duration, and records everything to the
// backend.
func (r *Runner) Run() (*Result, error) {
	r.run = &core.Run{
		Name:      r.sc.Name,
		StartTime: r.start,
		FPS:       r.sc.FPS,
		Center:    r.sc.Center(),
		Zoom:      r.sc.View.Zoom,
		Width:     r.sc.View.Width,
		Height:    r.sc.View.Height,
		Meta: map[string]any{
			"markers":  len(r.sc.Markers),
			"steps":    len(r.sc.Timeline),
			"duration": r.sc.Duration.String(),
		},
	}
	if err := r.backend.StartRun(r.run); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	r.logger.Info("Scenario started", "markers", len(r.sc.Markers), "steps", len(r.sc.Timeline), "fps", r.sc.FPS)

	interval := r.sc.FrameInterval()
	last := int((r.sc.Duration + interval - 1) / interval)
	next := 0
	for i := 0; i <= last; i++ {
		elapsed := min(time.Duration(i)*interval, r.sc.Duration)
		r.sched.Set(r.start.Add(elapsed))
		for next < len(r.sc.Timeline) && r.sc.Timeline[next].At <= elapsed {
			r.dispatch(r.sc.Timeline[next])
			next++
		}
		r.result.Frames += r.sched.Step()
	}

	if err := r.backend.EndRun(); err != nil {
		return nil, fmt.Errorf("failed to end run: %w", err)
	}

	r.result.Run = *r.run
	r.result.Markers = make(map[string]MarkerResult, len(r.markers))
	for name, mk := range r.markers {
		stats := *r.stats[name]
		stats.Position = mk.LatLng()
		stats.OnMap = r.m.HasLayer(name)
		stats.Bouncing = mk.Animator().Active()
		r.result.Markers[name] = stats
	}

	r.logger.Info("Scenario finished", "frames", r.result.Frames, "failures", len(r.result.Failures))
	return &r.result, nil
}

func (r *Runner) dispatch(step Step) {
	e := dispatcher.Event{
		Command:   step.Command,
		Marker:    step.Marker,
		Args:      step.Args,
		Timestamp: r.sched.Now(),
	}
	if step.Options != nil {
		e.Args = []any{step.Options}
	}

	r.result.Steps++
	if _, err := r.disp.Dispatch(e); err != nil {
		r.result.Failures = append(r.result.Failures, fmt.Sprintf("%s %s %s: %v", step.At, step.Command, step.Marker, err))
	}
}

// MarkerNames returns the declared marker names, sorted.
func (r *Result) MarkerNames() []string {
	names := make([]string, 0, len(r.Markers))
	for name := range r.Markers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
