package geo

import (
	"sync"

	"github.com/OCAP2/bouncemarker/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Viewport is the visible part of a map: a center, a zoom level and a
// container size in pixels. Container points are relative to the top-left
// corner of the container. It is safe for concurrent use.
type Viewport struct {
	mu     sync.RWMutex
	center core.LatLng
	zoom   float64
	width  float64
	height float64
}

// NewViewport creates a viewport of width x height pixels.
func NewViewport(center core.LatLng, zoom float64, width, height int) *Viewport {
	return &Viewport{
		center: center,
		zoom:   zoom,
		width:  float64(width),
		height: float64(height),
	}
}

// Center returns the geographic center of the view.
func (v *Viewport) Center() core.LatLng {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.center
}

// Zoom returns the current zoom level.
func (v *Viewport) Zoom() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

// Size returns the container size in pixels.
func (v *Viewport) Size() geom.XY {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return geom.XY{X: v.width, Y: v.height}
}

// SetView moves the view to center at zoom.
func (v *Viewport) SetView(center core.LatLng, zoom float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = center
	v.zoom = zoom
}

// PanBy moves the view center by dx, dy pixels.
func (v *Viewport) PanBy(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c := Project(v.center, v.zoom)
	v.center = Unproject(geom.XY{X: c.X + dx, Y: c.Y + dy}, v.zoom)
}

// Project converts a coordinate to world pixels at the current zoom.
func (v *Viewport) Project(ll core.LatLng) geom.XY {
	return Project(ll, v.Zoom())
}

// Unproject converts world pixels at the current zoom to a coordinate.
func (v *Viewport) Unproject(p geom.XY) core.LatLng {
	return Unproject(p, v.Zoom())
}

// pixelOrigin is the world pixel shown at container point (0, 0).
func (v *Viewport) pixelOrigin() (geom.XY, float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c := Project(v.center, v.zoom)
	return geom.XY{X: c.X - v.width/2, Y: c.Y - v.height/2}, v.zoom
}

// LatLngToContainerPoint returns the container pixel of a coordinate.
func (v *Viewport) LatLngToContainerPoint(ll core.LatLng) geom.XY {
	origin, zoom := v.pixelOrigin()
	p := Project(ll, zoom)
	return geom.XY{X: p.X - origin.X, Y: p.Y - origin.Y}
}

// ContainerPointToLatLng returns the coordinate shown at a container pixel.
func (v *Viewport) ContainerPointToLatLng(p geom.XY) core.LatLng {
	origin, zoom := v.pixelOrigin()
	return Unproject(geom.XY{X: p.X + origin.X, Y: p.Y + origin.Y}, zoom)
}

// Bounds returns the geographic rectangle currently visible.
func (v *Viewport) Bounds() core.Bounds {
	size := v.Size()
	return core.Bounds{
		SouthWest: v.ContainerPointToLatLng(geom.XY{X: 0, Y: size.Y}),
		NorthEast: v.ContainerPointToLatLng(geom.XY{X: size.X, Y: 0}),
	}
}
