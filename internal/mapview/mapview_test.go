package mapview

import (
	"errors"
	"sync"
	"testing"

	"github.com/OCAP2/bouncemarker/internal/geo"
	"github.com/OCAP2/bouncemarker/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLayer struct {
	name    string
	added   []*Map
	removed []*Map
}

func (l *recordingLayer) Name() string    { return l.name }
func (l *recordingLayer) OnAdd(m *Map)    { l.added = append(l.added, m) }
func (l *recordingLayer) OnRemove(m *Map) { l.removed = append(l.removed, m) }

func newTestMap() *Map {
	return New(geo.NewViewport(core.LatLng{Lat: 48.85, Lng: 2.35}, 12, 800, 600), nil)
}

func TestMap_AddLayerCallsOnAdd(t *testing.T) {
	m := newTestMap()
	l := &recordingLayer{name: "a"}

	require.NoError(t, m.AddLayer(l))

	require.Len(t, l.added, 1)
	assert.Same(t, m, l.added[0])
	assert.True(t, m.HasLayer("a"))
}

func TestMap_AddLayerDuplicate(t *testing.T) {
	m := newTestMap()
	require.NoError(t, m.AddLayer(&recordingLayer{name: "a"}))

	dup := &recordingLayer{name: "a"}
	err := m.AddLayer(dup)

	assert.True(t, errors.Is(err, ErrDuplicateLayer))
	assert.Empty(t, dup.added)
}

func TestMap_RemoveLayerCallsOnRemove(t *testing.T) {
	m := newTestMap()
	l := &recordingLayer{name: "a"}
	require.NoError(t, m.AddLayer(l))

	require.NoError(t, m.RemoveLayer("a"))

	require.Len(t, l.removed, 1)
	assert.False(t, m.HasLayer("a"))
}

func TestMap_RemoveUnknownLayer(t *testing.T) {
	m := newTestMap()

	err := m.RemoveLayer("missing")

	assert.True(t, errors.Is(err, ErrUnknownLayer))
}

func TestMap_LayersSorted(t *testing.T) {
	m := newTestMap()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, m.AddLayer(&recordingLayer{name: name}))
	}

	assert.Equal(t, []string{"a", "b", "c"}, m.Layers())
}

func TestMap_Reset(t *testing.T) {
	m := newTestMap()
	a := &recordingLayer{name: "a"}
	b := &recordingLayer{name: "b"}
	require.NoError(t, m.AddLayer(a))
	require.NoError(t, m.AddLayer(b))

	m.Reset()

	assert.Empty(t, m.Layers())
	assert.Len(t, a.removed, 1)
	assert.Len(t, b.removed, 1)
}

func TestMap_ExposesViewport(t *testing.T) {
	m := newTestMap()

	p := m.LatLngToContainerPoint(m.Center())

	assert.InDelta(t, 400, p.X, 1e-4)
	assert.InDelta(t, 300, p.Y, 1e-4)
}

func TestMap_ConcurrentAddRemove(t *testing.T) {
	m := newTestMap()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i%26))
			_ = m.AddLayer(&recordingLayer{name: name})
			_ = m.RemoveLayer(name)
		}(i)
	}
	wg.Wait()
}
