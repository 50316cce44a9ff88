// Package scenario describes and runs headless simulations of markers being
// added to, bounced on and removed from a map.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/OCAP2/bouncemarker/internal/frame"
	"github.com/OCAP2/bouncemarker/internal/geo"
	"github.com/OCAP2/bouncemarker/pkg/core"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is returned for scenarios that cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Timeline commands.
const (
	CommandAdd    = "add"
	CommandRemove = "remove"
	CommandBounce = "bounce"
	CommandStop   = "stop"
	CommandPan    = "pan"
)

var markerCommands = map[string]bool{
	CommandAdd:    true,
	CommandRemove: true,
	CommandBounce: true,
	CommandStop:   true,
}

// View is the map view of a scenario.
type View struct {
	Center string  `yaml:"center"` // "lat,lng"
	Zoom   float64 `yaml:"zoom"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

// Marker declares a marker that timeline steps can refer to.
type Marker struct {
	Name               string             `yaml:"name"`
	Position           string             `yaml:"position"` // "lat,lng"
	BounceOnAdd        bool               `yaml:"bounceOnAdd"`
	BounceOnAddOptions core.BounceOptions `yaml:"bounceOnAddOptions"`
}

// Step is one timeline command. A bounce takes either Options or the
// positional Args accepted by the legacy call shapes (duration ms, height px).
// A pan takes Args [dx, dy] in pixels.
type Step struct {
	At      time.Duration       `yaml:"at"`
	Command string              `yaml:"command"`
	Marker  string              `yaml:"marker,omitempty"`
	Options *core.BounceOptions `yaml:"options,omitempty"`
	Args    []any               `yaml:"args,omitempty"`
}

// Scenario is a complete simulation description.
type Scenario struct {
	Name     string        `yaml:"name"`
	View     View          `yaml:"view"`
	FPS      int           `yaml:"fps"`
	Duration time.Duration `yaml:"duration"`
	Markers  []Marker      `yaml:"markers"`
	Timeline []Step        `yaml:"timeline"`

	center       core.LatLng
	positions    map[string]core.LatLng
	fpsDefaulted bool
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
}

// Validate checks the scenario, fills in defaults and sorts the timeline by
// time, keeping the file order of steps at the same time.
func (s *Scenario) Validate() error {
	if s.FPS == 0 {
		s.FPS = frame.DefaultFPS
		s.fpsDefaulted = true
	}
	if s.FPS < 0 {
		return invalid("fps must be positive, got %d", s.FPS)
	}
	if s.Duration <= 0 {
		return invalid("duration must be positive, got %s", s.Duration)
	}
	if s.View.Width <= 0 || s.View.Height <= 0 {
		return invalid("view size must be positive, got %dx%d", s.View.Width, s.View.Height)
	}

	center, err := geo.ParseLatLng(s.View.Center)
	if err != nil {
		return invalid("view center: %v", err)
	}
	s.center = center

	s.positions = make(map[string]core.LatLng, len(s.Markers))
	for i, m := range s.Markers {
		if m.Name == "" {
			return invalid("marker %d has no name", i)
		}
		if _, dup := s.positions[m.Name]; dup {
			return invalid("marker %q declared twice", m.Name)
		}
		ll, err := geo.ParseLatLng(m.Position)
		if err != nil {
			return invalid("marker %q position: %v", m.Name, err)
		}
		s.positions[m.Name] = ll
	}

	for i, step := range s.Timeline {
		if step.At < 0 || step.At > s.Duration {
			return invalid("step %d at %s is outside 0..%s", i, step.At, s.Duration)
		}
		switch {
		case markerCommands[step.Command]:
			if _, ok := s.positions[step.Marker]; !ok {
				return invalid("step %d: unknown marker %q", i, step.Marker)
			}
		case step.Command == CommandPan:
			if _, _, ok := panArgs(step.Args); !ok {
				return invalid("step %d: pan needs [dx, dy], got %v", i, step.Args)
			}
		default:
			return invalid("step %d: unknown command %q", i, step.Command)
		}
	}

	sort.SliceStable(s.Timeline, func(i, j int) bool {
		return s.Timeline[i].At < s.Timeline[j].At
	})
	return nil
}

// Center returns the parsed view center. Valid after Validate.
func (s *Scenario) Center() core.LatLng {
	return s.center
}

// Position returns the parsed position of a declared marker.
func (s *Scenario) Position(name string) (core.LatLng, bool) {
	ll, ok := s.positions[name]
	return ll, ok
}

// SetDefaultFPS replaces the frame rate if the scenario did not set one.
func (s *Scenario) SetDefaultFPS(fps int) {
	if s.fpsDefaulted && fps > 0 {
		s.FPS = fps
	}
}

// FrameInterval is the time between simulated frames.
func (s *Scenario) FrameInterval() time.Duration {
	return time.Second / time.Duration(s.FPS)
}

func panArgs(args []any) (dx, dy float64, ok bool) {
	if len(args) != 2 {
		return 0, 0, false
	}
	dx, okX := toFloat(args[0])
	dy, okY := toFloat(args[1])
	return dx, dy, okX && okY
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
