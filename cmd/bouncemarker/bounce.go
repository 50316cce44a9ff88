package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/OCAP2/bouncemarker/internal/bounce"
	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/internal/frame"
	"github.com/OCAP2/bouncemarker/internal/marker"
	"github.com/OCAP2/bouncemarker/pkg/core"
)

var errBounceDone = errors.New("bounce completed")

func newBounceCmd(a *app) *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "bounce",
		Short: "Animate one marker in real time",
		Long: `Add a marker to a map and bounce it in real time, printing every frame.
The command returns when the animation completes. Infinite loops (--loop -1)
run until interrupted; the marker is put back on its position first.

Examples:
  bouncemarker bounce --at 48.8566,2.3522 --center 48.8566,2.3522 --zoom 12
  bouncemarker bounce --duration 500ms --height 80 --loop 3 --fps 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBounce(cmd, &view)
		},
	}
	view.register(cmd)

	flags := cmd.Flags()
	flags.Duration("duration", 0, "Duration of one bounce (default from config)")
	flags.Float64("height", -1, "Drop height in pixels, negative for the map top (default from config)")
	flags.Int("loop", 0, "Number of bounces, -1 for infinite (default from config)")
	flags.Int("fps", 0, "Frames per second (default from config)")
	return cmd
}

// bounceOptions overlays the changed flags on the configured defaults.
func bounceOptions(cmd *cobra.Command) core.BounceOptions {
	opts := config.GetBounceOptions()
	flags := cmd.Flags()
	if flags.Changed("duration") {
		opts.Duration, _ = flags.GetDuration("duration")
	}
	if flags.Changed("height") {
		h, _ := flags.GetFloat64("height")
		opts.Height = core.Height(h)
	}
	if flags.Changed("loop") {
		opts.Loop, _ = flags.GetInt("loop")
	}
	return opts
}

func (a *app) runBounce(cmd *cobra.Command, view *viewFlags) error {
	m, at, err := view.build(a.logger)
	if err != nil {
		return err
	}

	fps := config.GetFrameConfig().FPS
	if cmd.Flags().Changed("fps") {
		fps, _ = cmd.Flags().GetInt("fps")
	}
	loop := frame.NewLoop(fps)

	opts := bounceOptions(cmd)
	if _, err := bounce.Normalize(opts); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancelCause(sigCtx)
	defer cancel(nil)

	out := cmd.OutOrStdout()
	var started time.Time
	markerOpts := config.GetMarkerOptions()
	markerOpts.BounceOnAdd = true
	markerOpts.BounceOnAddOptions = opts
	markerOpts.BounceOnAddCallback = func() {
		cancel(errBounceDone)
	}

	mk, err := marker.New("marker", at, markerOpts, marker.Dependencies{
		Scheduler: loop,
		Logger:    a.logger,
		Observer: func(_ string, fi bounce.FrameInfo) {
			if started.IsZero() {
				started = fi.Time
			}
			fmt.Fprintf(out, "%8s  progress=%.3f  y=%7.1f  position=%s  loops=%d\n",
				fi.Time.Sub(started).Round(time.Millisecond), fi.Progress, fi.DropPoint.Y, fi.Position, fi.RemainingLoops)
		},
	})
	if err != nil {
		return err
	}
	if err := m.AddLayer(mk); err != nil {
		return err
	}
	a.logger.Info("Bouncing marker", "at", at.String(), "fps", fps, "duration", opts.Duration, "loop", opts.Loop)

	if err := loop.Run(ctx); err != nil && !errors.Is(context.Cause(ctx), errBounceDone) {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		// interrupted
		mk.StopBounce()
	}

	fmt.Fprintf(out, "landed at %s\n", mk.LatLng())
	return nil
}
