package logging

import (
	"context"
	"log/slog"
	"time"
)

// Clock reports the current time of whatever drives the frames being logged.
type Clock interface {
	Now() time.Time
}

// ClockHandler stamps every record with the time elapsed on a clock since
// start, so logs of a simulated run line up with its frames.
type ClockHandler struct {
	inner slog.Handler
	clock Clock
	start time.Time
	key   string
}

// NewClockHandler wraps inner, adding key=elapsed to each record.
func NewClockHandler(inner slog.Handler, clock Clock, start time.Time, key string) *ClockHandler {
	return &ClockHandler{inner: inner, clock: clock, start: start, key: key}
}

// WithClock returns a logger that adds the elapsed clock time as "t".
func WithClock(logger *slog.Logger, clock Clock, start time.Time) *slog.Logger {
	return slog.New(NewClockHandler(logger.Handler(), clock, start, "t"))
}

// Enabled delegates to the inner handler.
func (h *ClockHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the elapsed time and delegates to the inner handler.
func (h *ClockHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.Duration(h.key, h.clock.Now().Sub(h.start)))
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ClockHandler with the given attributes.
func (h *ClockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ClockHandler{inner: h.inner.WithAttrs(attrs), clock: h.clock, start: h.start, key: h.key}
}

// WithGroup returns a new ClockHandler with the given group.
func (h *ClockHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ClockHandler{inner: h.inner.WithGroup(name), clock: h.clock, start: h.start, key: h.key}
}
