// Package gormstore records runs into a gorm database (SQLite or Postgres).
// Frames are buffered and inserted in batches when the run ends; runs and
// events are written immediately.
package gormstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/OCAP2/bouncemarker/internal/database"
	"github.com/OCAP2/bouncemarker/internal/model"
	"github.com/OCAP2/bouncemarker/internal/model/convert"
	"github.com/OCAP2/bouncemarker/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoRun is returned when recording before StartRun.
var ErrNoRun = errors.New("no run started")

// frameBatchSize bounds a single multi-row insert.
const frameBatchSize = 500

// Options holds backend settings.
type Options struct {
	// DumpPath receives a VACUUM INTO copy of a SQLite database at EndRun.
	DumpPath string
}

// Backend implements storage.Backend on gorm.
type Backend struct {
	db   *gorm.DB
	opts Options

	mu      sync.Mutex
	runID   uint
	pending []model.Frame
}

// New creates a backend over an open connection.
func New(db *gorm.DB, opts Options) *Backend {
	return &Backend{db: db, opts: opts}
}

// DB exposes the connection for queries.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	return database.Migrate(b.db)
}

// Close flushes pending frames and closes the connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	err := b.flushLocked()
	b.mu.Unlock()

	sqlDB, dbErr := b.db.DB()
	if dbErr != nil {
		return errors.Join(err, dbErr)
	}
	return errors.Join(err, sqlDB.Close())
}

// StartRun inserts the run row and assigns run.ID.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.flushLocked(); err != nil {
		return err
	}

	rec := convert.RunToGorm(*run)
	rec.ID = 0
	if err := b.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	run.ID = rec.ID
	b.runID = rec.ID
	return nil
}

// EndRun flushes buffered frames and dumps SQLite databases when configured.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.runID == 0 {
		return ErrNoRun
	}
	if err := b.flushLocked(); err != nil {
		return err
	}
	b.runID = 0

	if b.opts.DumpPath != "" && b.db.Dialector.Name() == "sqlite" {
		if err := database.DumpMemoryDBToDisk(b.db, b.opts.DumpPath); err != nil {
			return err
		}
	}
	return nil
}

// RecordFrame buffers a frame for the current run.
func (b *Backend) RecordFrame(f *core.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.runID == 0 {
		return ErrNoRun
	}
	f.RunID = b.runID
	rec := convert.FrameToGorm(*f)
	rec.ID = 0
	b.pending = append(b.pending, rec)

	if len(b.pending) >= frameBatchSize {
		return b.flushLocked()
	}
	return nil
}

// RecordEvent inserts an event for the current run and assigns e.ID.
func (b *Backend) RecordEvent(e *core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.runID == 0 {
		return ErrNoRun
	}
	e.RunID = b.runID
	rec := convert.EventToGorm(*e)
	rec.ID = 0
	if err := b.db.Omit(clause.Associations).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	e.ID = rec.ID
	return nil
}

func (b *Backend) flushLocked() error {
	if len(b.pending) == 0 {
		return nil
	}
	if err := b.db.Omit(clause.Associations).CreateInBatches(b.pending, frameBatchSize).Error; err != nil {
		return fmt.Errorf("failed to insert %d frames: %w", len(b.pending), err)
	}
	b.pending = b.pending[:0]
	return nil
}

// LoadRun reads a recorded run back with its frames and events in time order.
func (b *Backend) LoadRun(id uint) (core.Run, []core.Frame, []core.Event, error) {
	var run model.Run
	if err := b.db.First(&run, id).Error; err != nil {
		return core.Run{}, nil, nil, fmt.Errorf("failed to load run %d: %w", id, err)
	}

	var frames []model.Frame
	if err := b.db.Where("run_id = ?", id).Order("time, id").Find(&frames).Error; err != nil {
		return core.Run{}, nil, nil, fmt.Errorf("failed to load frames of run %d: %w", id, err)
	}

	var events []model.Event
	if err := b.db.Where("run_id = ?", id).Order("time, id").Find(&events).Error; err != nil {
		return core.Run{}, nil, nil, fmt.Errorf("failed to load events of run %d: %w", id, err)
	}

	outFrames := make([]core.Frame, len(frames))
	for i, f := range frames {
		outFrames[i] = convert.FrameToCore(f)
	}
	outEvents := make([]core.Event, len(events))
	for i, e := range events {
		outEvents[i] = convert.EventToCore(e)
	}
	return convert.RunToCore(run), outFrames, outEvents, nil
}
