// Package mapview is the host map markers are added to: a geo.Viewport plus a
// registry of named layers whose add/remove hooks it calls.
package mapview

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/OCAP2/bouncemarker/internal/geo"
)

var (
	// ErrDuplicateLayer is returned when a layer name is already on the map.
	ErrDuplicateLayer = errors.New("layer already on map")
	// ErrUnknownLayer is returned when a layer name is not on the map.
	ErrUnknownLayer = errors.New("layer not on map")
)

// Layer is anything that can be added to a Map.
type Layer interface {
	Name() string
	OnAdd(m *Map)
	OnRemove(m *Map)
}

// Map is a viewport with layers on it. It is safe for concurrent use; layer
// hooks are called without the registry lock held.
type Map struct {
	*geo.Viewport
	logger *slog.Logger

	mu     sync.RWMutex
	layers map[string]Layer
}

// New creates a Map showing view. A nil logger uses slog.Default().
func New(view *geo.Viewport, logger *slog.Logger) *Map {
	if logger == nil {
		logger = slog.Default()
	}
	return &Map{
		Viewport: view,
		logger:   logger,
		layers:   make(map[string]Layer),
	}
}

// AddLayer registers l and calls its OnAdd hook.
func (m *Map) AddLayer(l Layer) error {
	name := l.Name()

	m.mu.Lock()
	if _, ok := m.layers[name]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateLayer, name)
	}
	m.layers[name] = l
	m.mu.Unlock()

	l.OnAdd(m)
	m.logger.Debug("Layer added", "layer", name)
	return nil
}

// RemoveLayer unregisters the named layer and calls its OnRemove hook.
func (m *Map) RemoveLayer(name string) error {
	m.mu.Lock()
	l, ok := m.layers[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownLayer, name)
	}
	delete(m.layers, name)
	m.mu.Unlock()

	l.OnRemove(m)
	m.logger.Debug("Layer removed", "layer", name)
	return nil
}

// Layer returns the named layer.
func (m *Map) Layer(name string) (Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.layers[name]
	return l, ok
}

// HasLayer reports whether the named layer is on the map.
func (m *Map) HasLayer(name string) bool {
	_, ok := m.Layer(name)
	return ok
}

// Layers returns the names of all layers, sorted.
func (m *Map) Layers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.layers))
	for name := range m.layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset removes every layer, calling their OnRemove hooks.
func (m *Map) Reset() {
	m.mu.Lock()
	layers := m.layers
	m.layers = make(map[string]Layer)
	m.mu.Unlock()

	for _, l := range layers {
		l.OnRemove(m)
	}
}
