package convert

import (
	"math"
	"testing"
	"time"

	"github.com/OCAP2/bouncemarker/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunToGorm_StoresCenterAsLonLat(t *testing.T) {
	run := core.Run{
		Name:   "drop",
		Center: core.LatLng{Lat: 52.5, Lng: 13.4},
		Zoom:   12,
		Meta:   map[string]any{"scenario": "drop.yaml"},
	}

	got := RunToGorm(run)

	coord, ok := got.Center.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 13.4, coord.XY.X)
	assert.Equal(t, 52.5, coord.XY.Y)
	assert.JSONEq(t, `{"scenario":"drop.yaml"}`, string(got.Meta))
}

func TestFrameToGorm_NonFinitePositionIsEmpty(t *testing.T) {
	got := FrameToGorm(core.Frame{Marker: "m1", Position: core.LatLng{Lat: math.Inf(1), Lng: 2}})

	assert.True(t, got.Position.IsEmpty())
	assert.Equal(t, core.LatLng{}, FrameToCore(got).Position)
}

func TestRunToGorm_EmptyMeta(t *testing.T) {
	got := RunToGorm(core.Run{})
	assert.Equal(t, "{}", string(got.Meta))

	back := RunToCore(got)
	assert.Nil(t, back.Meta)
}

func TestRunRoundTrip(t *testing.T) {
	run := core.Run{
		ID:        3,
		Name:      "loops",
		StartTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		FPS:       60,
		Center:    core.LatLng{Lat: -33.9, Lng: 151.2},
		Zoom:      10,
		Width:     800,
		Height:    600,
		Meta:      map[string]any{"markers": float64(2)},
	}

	assert.Equal(t, run, RunToCore(RunToGorm(run)))
}

func TestFrameRoundTrip(t *testing.T) {
	f := core.Frame{
		ID:             7,
		RunID:          3,
		Marker:         "m1",
		Time:           time.Date(2026, 3, 1, 12, 0, 0, 500_000_000, time.UTC),
		Progress:       0.5,
		Delta:          0.765625,
		DropX:          100,
		DropY:          241.7,
		Position:       core.LatLng{Lat: 10, Lng: 20},
		RemainingLoops: 1,
	}

	assert.Equal(t, f, FrameToCore(FrameToGorm(f)))
}

func TestEventRoundTrip(t *testing.T) {
	e := core.Event{
		ID:     1,
		RunID:  3,
		Marker: "m1",
		Time:   time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
		Kind:   core.EventCompleted,
		Detail: "loops=1",
	}

	got := EventToGorm(e)
	assert.Equal(t, "completed", got.Kind)
	assert.Equal(t, e, EventToCore(got))
}
