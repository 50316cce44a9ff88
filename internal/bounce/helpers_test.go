package bounce

import (
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/bouncemarker/internal/frame"
	"github.com/OCAP2/bouncemarker/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// flatMap is a linear map: world pixel x = Lng, y = -Lat. The container is
// width x height pixels centered on center, and the top of the visible area
// sits at container y = top.
type flatMap struct {
	mu     sync.Mutex
	center core.LatLng
	width  float64
	height float64
	top    float64
}

func newFlatMap() *flatMap {
	return &flatMap{width: 800, height: 600, top: 50}
}

func (f *flatMap) Project(ll core.LatLng) geom.XY {
	return geom.XY{X: ll.Lng, Y: -ll.Lat}
}

func (f *flatMap) Center() core.LatLng {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.center
}

func (f *flatMap) origin() geom.XY {
	c := f.Project(f.Center())
	return geom.XY{X: c.X - f.width/2, Y: c.Y - f.height/2}
}

func (f *flatMap) LatLngToContainerPoint(ll core.LatLng) geom.XY {
	o := f.origin()
	p := f.Project(ll)
	return geom.XY{X: p.X - o.X, Y: p.Y - o.Y}
}

func (f *flatMap) ContainerPointToLatLng(p geom.XY) core.LatLng {
	o := f.origin()
	return core.LatLng{Lat: -(p.Y + o.Y), Lng: p.X + o.X}
}

func (f *flatMap) Bounds() core.Bounds {
	return core.Bounds{
		SouthWest: f.ContainerPointToLatLng(geom.XY{X: 0, Y: f.height}),
		NorthEast: f.ContainerPointToLatLng(geom.XY{X: f.width, Y: f.top}),
	}
}

// pan moves the view center by dx, dy pixels.
func (f *flatMap) pan(dx, dy float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.center = core.LatLng{Lat: f.center.Lat - dy, Lng: f.center.Lng + dx}
}

// at returns the coordinate at container point (x, y).
func (f *flatMap) at(x, y float64) core.LatLng {
	return f.ContainerPointToLatLng(geom.XY{X: x, Y: y})
}

// fakeMarker records every position it is moved to.
type fakeMarker struct {
	mu      sync.Mutex
	pos     core.LatLng
	history []core.LatLng
}

func (m *fakeMarker) LatLng() core.LatLng {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *fakeMarker) SetLatLng(ll core.LatLng) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = ll
	m.history = append(m.history, ll)
}

func (m *fakeMarker) moves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

type fixture struct {
	m      *flatMap
	marker *fakeMarker
	sched  *frame.Manual
	anim   *Animator
	frames []FrameInfo
}

// newFixture places a marker at container point (100, 300) on a flat map
// whose visible top is at y = 50.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		m:     newFlatMap(),
		sched: frame.NewManual(epoch),
	}
	fx.marker = &fakeMarker{pos: fx.m.at(100, 300)}

	anim, err := New(fx.marker, fx.sched,
		WithName("test"),
		WithFrameObserver(func(fi FrameInfo) { fx.frames = append(fx.frames, fi) }),
	)
	require.NoError(t, err)
	fx.anim = anim
	return fx
}

// runTo steps frames every interval until the clock reaches epoch+until.
func (fx *fixture) runTo(until, interval time.Duration) {
	for fx.sched.Now().Before(epoch.Add(until)) {
		fx.sched.Advance(interval)
	}
}
