// pkg/core/types.go
package core

import "fmt"

// LatLng is a geographic coordinate in degrees (WGS84).
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// String formats the coordinate as "lat,lng".
func (ll LatLng) String() string {
	return fmt.Sprintf("%g,%g", ll.Lat, ll.Lng)
}

// Bounds is the geographic rectangle covered by a map view.
type Bounds struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}
