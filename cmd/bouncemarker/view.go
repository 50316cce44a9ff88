package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/OCAP2/bouncemarker/internal/geo"
	"github.com/OCAP2/bouncemarker/internal/mapview"
	"github.com/OCAP2/bouncemarker/pkg/core"
)

// viewFlags describe the map and the marker position of single-marker commands.
type viewFlags struct {
	center string
	zoom   float64
	size   string
	at     string
}

func (v *viewFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&v.center, "center", "0,0", "Map center as lat,lng")
	flags.Float64Var(&v.zoom, "zoom", 2, "Map zoom level")
	flags.StringVar(&v.size, "size", "800x600", "Map size in pixels, WIDTHxHEIGHT")
	flags.StringVar(&v.at, "at", "", "Marker position as lat,lng (default: map center)")
}

// build returns the map and the marker position.
func (v *viewFlags) build(logger *slog.Logger) (*mapview.Map, core.LatLng, error) {
	center, err := geo.ParseLatLng(v.center)
	if err != nil {
		return nil, core.LatLng{}, fmt.Errorf("invalid --center %q: %w", v.center, err)
	}
	at := center
	if v.at != "" {
		at, err = geo.ParseLatLng(v.at)
		if err != nil {
			return nil, core.LatLng{}, fmt.Errorf("invalid --at %q: %w", v.at, err)
		}
	}
	width, height, err := parseSize(v.size)
	if err != nil {
		return nil, core.LatLng{}, err
	}
	return mapview.New(geo.NewViewport(center, v.zoom, width, height), logger), at, nil
}

func parseSize(s string) (width, height int, err error) {
	if _, err := fmt.Sscanf(s, "%dx%d", &width, &height); err != nil {
		return 0, 0, fmt.Errorf("invalid --size %q: want WIDTHxHEIGHT", s)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid --size %q: dimensions must be positive", s)
	}
	return width, height, nil
}
