package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/OCAP2/bouncemarker/internal/geo"
	geom "github.com/peterstace/simplefeatures/geom"
)

// TraceExport is the root JSON structure
type TraceExport struct {
	Name      string       `json:"name"`
	StartTime time.Time    `json:"startTime"`
	FPS       int          `json:"fps"`
	View      ViewJSON     `json:"view"`
	Duration  int64        `json:"durationMs"`
	Markers   []MarkerJSON `json:"markers"`
	Events    [][]any      `json:"events"`
	Meta      any          `json:"meta,omitempty"`
}

// ViewJSON describes the map view of the run
type ViewJSON struct {
	Center [2]float64 `json:"center"` // [lat, lng]
	Zoom   float64    `json:"zoom"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

// MarkerJSON holds one marker's frames.
// Frame format: [offsetMs, progress, delta, dropX, dropY, lat, lng, remainingLoops]
type MarkerJSON struct {
	Name          string      `json:"name"`
	Frames        [][]any     `json:"frames"`
	FinalPosition [2]float64  `json:"finalPosition"`
	Mercator      *geom.Point `json:"mercator,omitempty"` // final position in EPSG:3857
}

// offsetMs is the time since run start in milliseconds.
func (b *Backend) offsetMs(t time.Time) int64 {
	return t.Sub(b.run.StartTime).Milliseconds()
}

// exportJSON writes the run data to a JSON file, gzipped if configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	name := strings.ReplaceAll(b.run.Name, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	if name == "" {
		name = "run"
	}
	timestamp := b.run.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() TraceExport {
	export := TraceExport{
		Name:      b.run.Name,
		StartTime: b.run.StartTime,
		FPS:       b.run.FPS,
		View: ViewJSON{
			Center: [2]float64{b.run.Center.Lat, b.run.Center.Lng},
			Zoom:   b.run.Zoom,
			Width:  b.run.Width,
			Height: b.run.Height,
		},
		Markers: make([]MarkerJSON, 0, len(b.markers)),
		Events:  make([][]any, 0, len(b.events)),
	}
	if len(b.run.Meta) > 0 {
		export.Meta = b.run.Meta
	}

	var last int64

	names := make([]string, 0, len(b.markers))
	for name := range b.markers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rec := b.markers[name]
		m := MarkerJSON{
			Name:   name,
			Frames: make([][]any, 0, len(rec.Frames)),
		}
		for _, f := range rec.Frames {
			offset := b.offsetMs(f.Time)
			m.Frames = append(m.Frames, []any{
				offset,
				f.Progress,
				f.Delta,
				f.DropX,
				f.DropY,
				f.Position.Lat,
				f.Position.Lng,
				f.RemainingLoops,
			})
			last = max(last, offset)
		}
		if n := len(rec.Frames); n > 0 {
			final := rec.Frames[n-1].Position
			m.FinalPosition = [2]float64{final.Lat, final.Lng}
			if pt, err := geo.MercatorPoint(final); err == nil {
				m.Mercator = &pt
			}
		}
		export.Markers = append(export.Markers, m)
	}

	// Format: [offsetMs, kind, marker, detail]
	for _, e := range b.events {
		offset := b.offsetMs(e.Time)
		export.Events = append(export.Events, []any{offset, string(e.Kind), e.Marker, e.Detail})
		last = max(last, offset)
	}

	export.Duration = last
	return export
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)

	encoder := json.NewEncoder(gw)
	if err := encoder.Encode(data); err != nil {
		gw.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}
