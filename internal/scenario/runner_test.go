package scenario

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/internal/storage/memory"
	"github.com/OCAP2/bouncemarker/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pxEps = 1e-4

func run(t *testing.T, doc string) (*Result, *memory.Backend, *Runner) {
	t.Helper()
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	backend := memory.New(config.MemoryConfig{})
	r, err := NewRunner(s, backend)
	require.NoError(t, err)

	res, err := r.Run()
	require.NoError(t, err)
	return res, backend, r
}

func kinds(events []core.Event) []core.EventKind {
	out := make([]core.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestRun_BounceOnAddCompletes(t *testing.T) {
	res, backend, _ := run(t, `
name: drop
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 4
duration: 2s
markers:
  - {name: m1, position: "0,0", bounceOnAdd: true}
timeline:
  - {at: 0s, command: add, marker: m1}
`)

	m1 := res.Markers["m1"]
	assert.Equal(t, 5, m1.Frames) // 0, 250, 500, 750, 1000ms
	assert.Equal(t, 1, m1.Callbacks)
	assert.True(t, m1.OnMap)
	assert.False(t, m1.Bouncing)
	assert.Equal(t, core.LatLng{}, m1.Position)
	assert.Equal(t, 5, res.Frames)
	assert.Equal(t, 1, res.Steps)
	assert.Empty(t, res.Failures)

	frames := backend.Frames("m1")
	require.Len(t, frames, 5)

	// first frame: at the top of the view
	assert.Equal(t, DefaultStart, frames[0].Time)
	assert.Equal(t, 0.0, frames[0].Progress)
	assert.InDelta(t, 0, frames[0].DropY, pxEps)
	assert.InDelta(t, 400, frames[0].DropX, pxEps)

	// half way: ease(0.5) = 0.765625 of the 300px drop
	assert.Equal(t, 0.5, frames[2].Progress)
	assert.InDelta(t, 0.765625, frames[2].Delta, 1e-12)
	assert.InDelta(t, 229.6875, frames[2].DropY, pxEps)

	assert.Equal(t, 1.0, frames[4].Progress)
	assert.InDelta(t, 300, frames[4].DropY, pxEps)

	assert.Equal(t, []core.EventKind{core.EventAdded, core.EventCompleted}, kinds(backend.Events()))
	assert.Equal(t, DefaultStart.Add(time.Second), backend.Events()[1].Time)
}

func TestRun_StopFreezesOnTruePosition(t *testing.T) {
	res, backend, _ := run(t, `
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 4
duration: 1s
markers:
  - {name: m1, position: "5,5"}
timeline:
  - {at: 0s, command: add, marker: m1}
  - {at: 0s, command: bounce, marker: m1, args: [1000, 100]}
  - {at: 500ms, command: stop, marker: m1}
`)

	m1 := res.Markers["m1"]
	assert.Equal(t, 2, m1.Frames) // 0 and 250ms; the stop precedes the 500ms frame
	assert.Equal(t, 0, m1.Callbacks)
	assert.False(t, m1.Bouncing)
	assert.Equal(t, core.LatLng{Lat: 5, Lng: 5}, m1.Position)

	events := backend.Events()
	assert.Equal(t, []core.EventKind{core.EventAdded, core.EventBounce, core.EventStopped}, kinds(events))
	assert.Equal(t, "duration=1s height=100px loop=1", events[1].Detail)
}

func TestRun_InfiniteLoopStillRunning(t *testing.T) {
	res, _, r := run(t, `
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 10
duration: 3s
markers:
  - {name: m1, position: "0,0"}
timeline:
  - {at: 0s, command: add, marker: m1}
  - {at: 0s, command: bounce, marker: m1, options: {duration: 500ms, loop: -1}}
`)

	m1 := res.Markers["m1"]
	assert.True(t, m1.Bouncing)
	assert.Equal(t, 0, m1.Callbacks)
	assert.Equal(t, 31, m1.Frames)

	mk, ok := r.Marker("m1")
	require.True(t, ok)
	assert.Equal(t, core.InfiniteLoop, mk.Animator().Snapshot().RemainingLoops)
}

func TestRun_MultipleLoopsCallbackOnce(t *testing.T) {
	res, backend, _ := run(t, `
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 4
duration: 2s
markers:
  - name: m1
    position: "0,0"
    bounceOnAdd: true
    bounceOnAddOptions: {duration: 500ms, loop: 3}
timeline:
  - {at: 0s, command: add, marker: m1}
`)

	m1 := res.Markers["m1"]
	assert.Equal(t, 1, m1.Callbacks)
	assert.False(t, m1.Bouncing)

	completed := 0
	for _, e := range backend.Events() {
		if e.Kind == core.EventCompleted {
			completed++
			assert.Equal(t, DefaultStart.Add(1500*time.Millisecond), e.Time)
		}
	}
	assert.Equal(t, 1, completed)
}

func TestRun_PanCompensation(t *testing.T) {
	_, backend, _ := run(t, `
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 4
duration: 1s
markers:
  - {name: m1, position: "0,0"}
timeline:
  - {at: 0s, command: add, marker: m1}
  - {at: 0s, command: bounce, marker: m1, args: [1000, 100]}
  - {at: 250ms, command: pan, args: [10, 20]}
`)

	frames := backend.Frames("m1")
	require.Len(t, frames, 5)

	assert.InDelta(t, 400, frames[0].DropX, pxEps)
	assert.InDelta(t, 200, frames[0].DropY, pxEps)

	// after the pan the drop point moves with the map by (-10, -20)
	assert.InDelta(t, 390, frames[1].DropX, pxEps)
	want := 200 + 100*frames[1].Delta - 20
	assert.InDelta(t, want, frames[1].DropY, pxEps)

	events := backend.Events()
	require.Len(t, events, 4)
	assert.Equal(t, core.EventPanned, events[2].Kind)
	assert.Equal(t, "dx=10 dy=20", events[2].Detail)
	assert.Empty(t, events[2].Marker)

	// the 1s bounce completes on the last frame
	assert.Equal(t, core.EventCompleted, events[3].Kind)
	assert.Equal(t, "m1", events[3].Marker)
	assert.Equal(t, DefaultStart.Add(time.Second), events[3].Time)
}

func TestRun_FailuresDoNotAbort(t *testing.T) {
	res, backend, _ := run(t, `
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 4
duration: 1s
markers:
  - {name: m1, position: "0,0"}
timeline:
  - {at: 0s, command: bounce, marker: m1}
  - {at: 0s, command: remove, marker: m1}
  - {at: 0s, command: bounce, marker: m1, args: [a, b, c]}
  - {at: 250ms, command: add, marker: m1}
  - {at: 500ms, command: add, marker: m1}
`)

	require.Len(t, res.Failures, 4)
	assert.Contains(t, res.Failures[0], "not on a map")
	assert.Contains(t, res.Failures[1], "layer not on map")
	assert.Contains(t, res.Failures[2], "unsupported bounce arguments")
	assert.Contains(t, res.Failures[3], "layer already on map")
	assert.Equal(t, 5, res.Steps)
	assert.True(t, res.Markers["m1"].OnMap)

	assert.Equal(t, []core.EventKind{core.EventAdded}, kinds(backend.Events()))
}

func TestRun_RemoveStopsAnimation(t *testing.T) {
	res, backend, r := run(t, `
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 4
duration: 2s
markers:
  - {name: m1, position: "3,4", bounceOnAdd: true}
timeline:
  - {at: 0s, command: add, marker: m1}
  - {at: 500ms, command: remove, marker: m1}
`)

	m1 := res.Markers["m1"]
	assert.False(t, m1.OnMap)
	assert.False(t, m1.Bouncing)
	assert.Equal(t, 0, m1.Callbacks)
	assert.Equal(t, core.LatLng{Lat: 3, Lng: 4}, m1.Position)
	assert.Equal(t, 2, m1.Frames)
	assert.False(t, r.Map().HasLayer("m1"))

	assert.Equal(t, []core.EventKind{core.EventAdded, core.EventRemoved}, kinds(backend.Events()))
}

func TestRun_RecordsRun(t *testing.T) {
	s, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	backend := memory.New(config.MemoryConfig{})
	r, err := NewRunner(s, backend, WithLogger(logger), WithStart(start))
	require.NoError(t, err)
	res, err := r.Run()
	require.NoError(t, err)

	assert.Equal(t, "two markers", res.Run.Name)
	assert.Equal(t, start, res.Run.StartTime)
	assert.Equal(t, uint(1), res.Run.ID)
	assert.Equal(t, 2, res.Run.Meta["markers"])
	assert.Equal(t, []string{"a", "b"}, res.MarkerNames())
	assert.Equal(t, start, backend.Run().StartTime)

	assert.Contains(t, logs.String(), "Scenario finished")
	assert.Contains(t, logs.String(), "scenario=\"two markers\"")
	assert.Contains(t, logs.String(), "t=2s")
}

func TestRun_DefaultOptions(t *testing.T) {
	s, err := Parse([]byte(`
name: defaults
view: {center: "0,0", zoom: 2, width: 800, height: 600}
fps: 4
duration: 2s
markers:
  - {name: m1, position: "0,0", bounceOnAdd: true}
  - {name: m2, position: "0,0"}
timeline:
  - {at: 0s, command: add, marker: m1}
  - {at: 0s, command: add, marker: m2}
  - {at: 0s, command: bounce, marker: m2}
`))
	require.NoError(t, err)

	backend := memory.New(config.MemoryConfig{})
	r, err := NewRunner(s, backend, WithDefaultOptions(core.BounceOptions{
		Duration: 500 * time.Millisecond,
		Height:   core.Height(100),
		Loop:     1,
	}))
	require.NoError(t, err)

	res, err := r.Run()
	require.NoError(t, err)

	for _, name := range []string{"m1", "m2"} {
		frames := backend.Frames(name)
		require.Len(t, frames, 3, name) // 0, 250, 500ms
		assert.InDelta(t, 200, frames[0].DropY, pxEps, name)
		assert.Equal(t, 1, res.Markers[name].Callbacks, name)
	}
}
