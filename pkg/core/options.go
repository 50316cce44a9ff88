// pkg/core/options.go
package core

import "time"

// Defaults applied to zero-valued BounceOptions fields.
const (
	DefaultBounceDuration = 1000 * time.Millisecond
	DefaultBounceLoop     = 1
	// InfiniteLoop makes the animation repeat until stopped.
	InfiniteLoop = -1
)

// BounceOptions configures a single bounce animation.
type BounceOptions struct {
	// Duration of one loop iteration. Zero means DefaultBounceDuration.
	Duration time.Duration `json:"duration" yaml:"duration" mapstructure:"duration"`
	// Height in pixels above the true position the marker is dropped from.
	// Nil or negative drops from the top of the visible map.
	Height *float64 `json:"height,omitempty" yaml:"height,omitempty" mapstructure:"height"`
	// Loop is the number of iterations. Zero means DefaultBounceLoop,
	// InfiniteLoop repeats forever.
	Loop int `json:"loop" yaml:"loop" mapstructure:"loop"`
}

// Height returns a pointer to h, for use in BounceOptions literals.
func Height(h float64) *float64 {
	return &h
}

// DefaultBounceOptions returns the options used when none are given.
func DefaultBounceOptions() BounceOptions {
	return BounceOptions{
		Duration: DefaultBounceDuration,
		Loop:     DefaultBounceLoop,
	}
}

// MarkerOptions are the bounce-related options recognised on marker construction.
type MarkerOptions struct {
	BounceOnAdd         bool
	BounceOnAddOptions  BounceOptions
	BounceOnAddCallback func()
}
