// Package influx writes run frames and events to InfluxDB as points. When
// the server cannot be reached and a backup path is configured, points are
// appended to a gzipped line-protocol file instead.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/pkg/core"
	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	FrameMeasurement = "bounce_frame"
	EventMeasurement = "bounce_event"
)

// ErrNoRun is returned when recording before StartRun.
var ErrNoRun = errors.New("no run started")

// pointWriter is the subset of the blocking write API in use.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*influxdb2_write.Point) error
	Flush(ctx context.Context) error
}

// Backend implements storage.Backend on InfluxDB.
type Backend struct {
	cfg config.InfluxConfig

	client influxdb2.Client
	writer pointWriter

	backupFile   *os.File
	backupWriter *gzip.Writer

	// session is a UUID tagged on every point, unique per backend
	session string

	mu        sync.Mutex
	run       *core.Run
	runSerial uint
}

// New creates an InfluxDB backend. Nothing is contacted until Init.
func New(cfg config.InfluxConfig) *Backend {
	return &Backend{cfg: cfg, session: uuid.NewString()}
}

// Session returns the value of the "session" tag written by this backend.
func (b *Backend) Session() string {
	return b.session
}

// Init connects to the server, falling back to the backup file when it is
// unreachable.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL,
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetHTTPRequestTimeout(5),
	)

	running, err := b.client.Ping(context.Background())
	if err == nil && running {
		b.writer = b.client.WriteAPIBlocking(b.cfg.Org, b.cfg.Bucket)
		return nil
	}

	if b.cfg.BackupPath == "" {
		b.client.Close()
		return fmt.Errorf("influxdb at %s unreachable: %w", b.cfg.URL, errors.Join(err, errors.New("no backup path configured")))
	}
	return b.openBackup()
}

func (b *Backend) openBackup() error {
	file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupFile = file
	b.backupWriter = gzip.NewWriter(file)
	return nil
}

// UsingBackup reports whether points go to the backup file.
func (b *Backend) UsingBackup() bool {
	return b.backupWriter != nil
}

// Close flushes and releases the client or the backup file.
func (b *Backend) Close() error {
	var errs []error
	if b.writer != nil {
		errs = append(errs, b.writer.Flush(context.Background()))
	}
	if b.client != nil {
		b.client.Close()
	}
	if b.backupWriter != nil {
		errs = append(errs, b.backupWriter.Close())
		errs = append(errs, b.backupFile.Close())
		b.backupWriter = nil
	}
	return errors.Join(errs...)
}

// StartRun assigns the run a serial number used as the "run" tag. The serial
// restarts with every backend; the "session" tag keeps runs apart.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.runSerial++
	run.ID = b.runSerial
	b.run = run
	return nil
}

// EndRun flushes written points.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	b.run = nil

	if b.backupWriter != nil {
		return b.backupWriter.Flush()
	}
	if b.writer != nil {
		return b.writer.Flush(context.Background())
	}
	return nil
}

// RecordFrame writes a frame point.
func (b *Backend) RecordFrame(f *core.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	f.RunID = b.run.ID
	return b.writePoint(FramePoint(b.session, b.run, f))
}

// RecordEvent writes an event point.
func (b *Backend) RecordEvent(e *core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoRun
	}
	e.RunID = b.run.ID
	return b.writePoint(EventPoint(b.session, b.run, e))
}

func (b *Backend) writePoint(p *influxdb2_write.Point) error {
	if b.backupWriter != nil {
		line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
		// PointToLineProtocol terminates the line
		if _, err := b.backupWriter.Write([]byte(line)); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
		return nil
	}
	if b.writer == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	if err := b.writer.WritePoint(context.Background(), p); err != nil {
		return fmt.Errorf("error writing point: %w", err)
	}
	return nil
}

func runTags(session string, run *core.Run) map[string]string {
	return map[string]string{
		"session":  session,
		"run":      strconv.FormatUint(uint64(run.ID), 10),
		"run_name": run.Name,
	}
}

// FramePoint converts a frame into a point tagged with session, run and marker.
func FramePoint(session string, run *core.Run, f *core.Frame) *influxdb2_write.Point {
	tags := runTags(session, run)
	tags["marker"] = f.Marker
	return influxdb2_write.NewPoint(
		FrameMeasurement,
		tags,
		map[string]interface{}{
			"progress":        f.Progress,
			"delta":           f.Delta,
			"drop_x":          f.DropX,
			"drop_y":          f.DropY,
			"lat":             f.Position.Lat,
			"lng":             f.Position.Lng,
			"remaining_loops": int64(f.RemainingLoops),
		},
		f.Time,
	)
}

// EventPoint converts an event into a point tagged with session, run, marker
// and kind.
func EventPoint(session string, run *core.Run, e *core.Event) *influxdb2_write.Point {
	tags := runTags(session, run)
	tags["kind"] = string(e.Kind)
	if e.Marker != "" {
		tags["marker"] = e.Marker
	}
	return influxdb2_write.NewPoint(
		EventMeasurement,
		tags,
		map[string]interface{}{
			"detail": e.Detail,
		},
		e.Time,
	)
}
