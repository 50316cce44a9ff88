// Package legacy accepts the loosely typed argument shapes older callers
// pass to bounce and turns them into the single canonical call.
//
// Accepted shapes:
//
//	Bounce(b)                          defaults
//	Bounce(b, callback)                defaults + callback
//	Bounce(b, opts)                    options
//	Bounce(b, opts, callback)          options + callback
//	Bounce(b, durationMs)              duration only
//	Bounce(b, durationMs, heightPx)    duration and height
//
// nil stands for "not given" in any position.
package legacy

import (
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/bouncemarker/pkg/core"
)

// ErrUnsupportedArguments is returned for argument shapes not listed above.
var ErrUnsupportedArguments = errors.New("unsupported bounce arguments")

// Bouncer is the canonical bounce operation.
type Bouncer interface {
	Bounce(opts core.BounceOptions, callback func()) error
}

// Bounce translates args and calls b.Bounce.
func Bounce(b Bouncer, args ...any) error {
	opts, callback, err := Translate(args...)
	if err != nil {
		return err
	}
	return b.Bounce(opts, callback)
}

// Translate converts legacy arguments into options and a callback.
func Translate(args ...any) (core.BounceOptions, func(), error) {
	opts := core.DefaultBounceOptions()

	switch len(args) {
	case 0:
		return opts, nil, nil

	case 1:
		switch v := args[0].(type) {
		case nil:
			return opts, nil, nil
		case func():
			return opts, v, nil
		case core.BounceOptions:
			return v, nil, nil
		case *core.BounceOptions:
			if v != nil {
				opts = *v
			}
			return opts, nil, nil
		}
		if ms, ok := number(args[0]); ok {
			opts.Duration = millis(ms)
			return opts, nil, nil
		}

	case 2:
		if cb, ok := callbackArg(args[1]); ok {
			switch v := args[0].(type) {
			case nil:
				return opts, cb, nil
			case core.BounceOptions:
				return v, cb, nil
			case *core.BounceOptions:
				if v != nil {
					opts = *v
				}
				return opts, cb, nil
			}
		}
		ms, okDuration := number(args[0])
		height, okHeight := number(args[1])
		if okDuration && okHeight {
			opts.Duration = millis(ms)
			opts.Height = core.Height(height)
			return opts, nil, nil
		}
	}

	return core.BounceOptions{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedArguments, describe(args))
}

func callbackArg(v any) (func(), bool) {
	switch cb := v.(type) {
	case nil:
		return nil, true
	case func():
		return cb, true
	}
	return nil, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func describe(args []any) string {
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = fmt.Sprintf("%T", a)
	}
	return fmt.Sprintf("%v", types)
}
