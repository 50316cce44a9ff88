// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/OCAP2/bouncemarker/internal/model"
	"github.com/OCAP2/bouncemarker/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// latLngToPoint converts a core.LatLng to a lon/lat geom.Point. Non-finite
// coordinates are stored as an empty point.
func latLngToPoint(ll core.LatLng) geom.Point {
	pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: ll.Lng, Y: ll.Lat}})
	if err != nil {
		return geom.Point{}
	}
	return pt
}

// metaToJSON converts run metadata to datatypes.JSON for DB storage.
func metaToJSON(meta map[string]any) datatypes.JSON {
	if len(meta) == 0 {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// RunToGorm converts a core.Run to a GORM Run.
func RunToGorm(r core.Run) model.Run {
	return model.Run{
		ID:        r.ID,
		Name:      r.Name,
		StartTime: r.StartTime,
		FPS:       r.FPS,
		Zoom:      r.Zoom,
		Width:     r.Width,
		Height:    r.Height,
		Center:    latLngToPoint(r.Center),
		Meta:      metaToJSON(r.Meta),
	}
}

// FrameToGorm converts a core.Frame to a GORM Frame.
func FrameToGorm(f core.Frame) model.Frame {
	return model.Frame{
		ID:             f.ID,
		RunID:          f.RunID,
		Marker:         f.Marker,
		Time:           f.Time,
		Progress:       f.Progress,
		Delta:          f.Delta,
		DropX:          f.DropX,
		DropY:          f.DropY,
		Position:       latLngToPoint(f.Position),
		RemainingLoops: f.RemainingLoops,
	}
}

// EventToGorm converts a core.Event to a GORM Event.
func EventToGorm(e core.Event) model.Event {
	return model.Event{
		ID:     e.ID,
		RunID:  e.RunID,
		Marker: e.Marker,
		Time:   e.Time,
		Kind:   string(e.Kind),
		Detail: e.Detail,
	}
}
