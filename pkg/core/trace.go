// pkg/core/trace.go
package core

import "time"

// Run describes one recorded simulation of a map and its markers.
type Run struct {
	ID        uint
	Name      string
	StartTime time.Time
	FPS       int
	Center    LatLng
	Zoom      float64
	Width     int
	Height    int
	// Meta carries free-form run metadata such as the scenario source.
	Meta map[string]any
}

// Frame is one applied animation step of a marker.
type Frame struct {
	ID             uint
	RunID          uint
	Marker         string
	Time           time.Time
	Progress       float64
	Delta          float64
	DropX          float64
	DropY          float64
	Position       LatLng
	RemainingLoops int
}

// EventKind classifies trace events.
type EventKind string

const (
	EventAdded     EventKind = "added"
	EventRemoved   EventKind = "removed"
	EventBounce    EventKind = "bounce"
	EventStopped   EventKind = "stopped"
	EventCompleted EventKind = "completed"
	EventPanned    EventKind = "panned"
)

// Event is a lifecycle event in a run (marker added, animation completed, ...).
type Event struct {
	ID     uint
	RunID  uint
	Marker string
	Time   time.Time
	Kind   EventKind
	Detail string
}
