package convert

import (
	"encoding/json"

	"github.com/OCAP2/bouncemarker/internal/model"
	"github.com/OCAP2/bouncemarker/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// pointToLatLng converts a lon/lat geom.Point to a core.LatLng
func pointToLatLng(p geom.Point) core.LatLng {
	coord, ok := p.Coordinates()
	if !ok {
		return core.LatLng{}
	}
	return core.LatLng{Lat: coord.XY.Y, Lng: coord.XY.X}
}

// RunToCore converts a GORM Run to a core.Run.
func RunToCore(r model.Run) core.Run {
	var meta map[string]any
	if len(r.Meta) > 0 {
		_ = json.Unmarshal(r.Meta, &meta)
	}
	if len(meta) == 0 {
		meta = nil
	}

	return core.Run{
		ID:        r.ID,
		Name:      r.Name,
		StartTime: r.StartTime,
		FPS:       r.FPS,
		Center:    pointToLatLng(r.Center),
		Zoom:      r.Zoom,
		Width:     r.Width,
		Height:    r.Height,
		Meta:      meta,
	}
}

// FrameToCore converts a GORM Frame to a core.Frame.
func FrameToCore(f model.Frame) core.Frame {
	return core.Frame{
		ID:             f.ID,
		RunID:          f.RunID,
		Marker:         f.Marker,
		Time:           f.Time,
		Progress:       f.Progress,
		Delta:          f.Delta,
		DropX:          f.DropX,
		DropY:          f.DropY,
		Position:       pointToLatLng(f.Position),
		RemainingLoops: f.RemainingLoops,
	}
}

// EventToCore converts a GORM Event to a core.Event.
func EventToCore(e model.Event) core.Event {
	return core.Event{
		ID:     e.ID,
		RunID:  e.RunID,
		Marker: e.Marker,
		Time:   e.Time,
		Kind:   core.EventKind(e.Kind),
		Detail: e.Detail,
	}
}
