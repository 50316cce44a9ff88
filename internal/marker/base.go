package marker

import (
	"sync"

	"github.com/OCAP2/bouncemarker/internal/mapview"
	"github.com/OCAP2/bouncemarker/pkg/core"
)

// Base is a plain map marker: a named position that can sit on a map.
type Base struct {
	name string

	mu        sync.RWMutex
	latlng    core.LatLng
	m         *mapview.Map
	listeners []func(core.LatLng)
}

// NewBase creates a marker at ll.
func NewBase(name string, ll core.LatLng) *Base {
	return &Base{name: name, latlng: ll}
}

// Name returns the marker name, which is also its layer name.
func (b *Base) Name() string {
	return b.name
}

// LatLng returns the displayed position.
func (b *Base) LatLng() core.LatLng {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latlng
}

// SetLatLng moves the marker and notifies move listeners.
func (b *Base) SetLatLng(ll core.LatLng) {
	b.mu.Lock()
	b.latlng = ll
	listeners := b.listeners
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(ll)
	}
}

// OnMove registers fn to run after every position change. Listeners run
// while an animation step is in progress and must not start or stop one.
func (b *Base) OnMove(fn func(core.LatLng)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Map returns the map the marker is on, or nil.
func (b *Base) Map() *mapview.Map {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.m
}

// OnAdd records the map the marker was added to.
func (b *Base) OnAdd(m *mapview.Map) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = m
}

// OnRemove forgets the map.
func (b *Base) OnRemove(m *mapview.Map) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m == m {
		b.m = nil
	}
}
