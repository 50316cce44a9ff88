// Package memory keeps a run in memory and exports it as JSON when it ends.
package memory

import (
	"errors"
	"sort"
	"sync"

	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/pkg/core"
)

// ErrNoRun is returned when recording before StartRun.
var ErrNoRun = errors.New("no run started")

// MarkerRecord groups a marker's frames and events
type MarkerRecord struct {
	Name   string
	Frames []core.Frame
	Events []core.Event
}

// Backend stores run data in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig
	run *core.Run

	markers map[string]*MarkerRecord // keyed by marker name
	events  []core.Event             // every event in record order

	runCounter     uint
	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		markers: make(map[string]*MarkerRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run, discarding anything recorded before.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.runCounter++
	run.ID = b.runCounter
	b.run = run

	b.markers = make(map[string]*MarkerRecord)
	b.events = nil
	b.idCounter = 0
	b.lastExportPath = ""

	return nil
}

// EndRun finalizes the run and exports it when an output directory is set.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// RecordFrame stores an animation frame under its marker.
func (b *Backend) RecordFrame(f *core.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.idCounter++
	f.ID = b.idCounter
	f.RunID = b.run.ID

	rec := b.record(f.Marker)
	rec.Frames = append(rec.Frames, *f)
	return nil
}

// RecordEvent stores a lifecycle event. Events without a marker (a pan)
// are kept in the run-wide list only.
func (b *Backend) RecordEvent(e *core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.idCounter++
	e.ID = b.idCounter
	e.RunID = b.run.ID

	b.events = append(b.events, *e)
	if e.Marker != "" {
		rec := b.record(e.Marker)
		rec.Events = append(rec.Events, *e)
	}
	return nil
}

func (b *Backend) record(name string) *MarkerRecord {
	rec, ok := b.markers[name]
	if !ok {
		rec = &MarkerRecord{Name: name}
		b.markers[name] = rec
	}
	return rec
}

// Run returns the current run, or nil.
func (b *Backend) Run() *core.Run {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.run
}

// Frames returns a copy of the frames recorded for marker.
func (b *Backend) Frames(marker string) []core.Frame {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.markers[marker]
	if !ok {
		return nil
	}
	return append([]core.Frame(nil), rec.Frames...)
}

// Events returns a copy of all recorded events in order.
func (b *Backend) Events() []core.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Event(nil), b.events...)
}

// Markers returns the names of markers with recorded data, sorted.
func (b *Backend) Markers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.markers))
	for name := range b.markers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportedFilePath returns the path of the last export, or "".
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
