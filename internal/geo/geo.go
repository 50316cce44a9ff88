package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/bouncemarker/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Map pixels follow the spherical Web Mercator (EPSG:3857) tiling scheme: the
// whole world is TileSize*2^zoom pixels wide, origin at the north-west corner.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// TileSize is the pixel width of the world at zoom 0.
const TileSize = 256

// half the EPSG:3857 extent (pi * WGS84 semi-major axis)
const mercatorHalfExtent = math.Pi * 6378137

var (
	toMercator = wgs84.EPSG().Transform(4326, 3857)
	toLatLng   = wgs84.EPSG().Transform(3857, 4326)
)

// ParseLatLng parses a string in the format "lat,lng" into a coordinate.
func ParseLatLng(coords string) (core.LatLng, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return core.LatLng{}, ErrInvalidCoordinates
	}
	return core.LatLng{Lat: lat, Lng: lng}, nil
}

// MercatorPoint converts a coordinate to an EPSG:3857 point. Coordinates
// that do not project to finite values return an error.
func MercatorPoint(ll core.LatLng) (geom.Point, error) {
	x, y, _ := toMercator(ll.Lng, ll.Lat, 0)
	pt, err := geom.NewPoint(geom.Coordinates{
		XY: geom.XY{X: x, Y: y},
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %s", ErrInvalidCoordinates, ll)
	}
	return pt, nil
}

// scale returns the world size in pixels at zoom.
func scale(zoom float64) float64 {
	return TileSize * math.Pow(2, zoom)
}

// Project converts a coordinate to absolute world pixels at zoom.
func Project(ll core.LatLng, zoom float64) geom.XY {
	x, y, _ := toMercator(ll.Lng, ll.Lat, 0)
	s := scale(zoom)
	return geom.XY{
		X: (x + mercatorHalfExtent) / (2 * mercatorHalfExtent) * s,
		Y: (mercatorHalfExtent - y) / (2 * mercatorHalfExtent) * s,
	}
}

// Unproject converts absolute world pixels at zoom back to a coordinate.
func Unproject(p geom.XY, zoom float64) core.LatLng {
	s := scale(zoom)
	x := p.X/s*(2*mercatorHalfExtent) - mercatorHalfExtent
	y := mercatorHalfExtent - p.Y/s*(2*mercatorHalfExtent)
	lng, lat, _ := toLatLng(x, y, 0)
	return core.LatLng{Lat: lat, Lng: lng}
}
