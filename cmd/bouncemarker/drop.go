package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OCAP2/bouncemarker/internal/bounce"
	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/pkg/core"
)

func newDropCmd(a *app) *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Show where a marker is dropped from",
		Long: `Compute the point a bouncing marker starts falling from. A negative
height drops the marker from the top edge of the map.

Examples:
  bouncemarker drop --at 48.8566,2.3522 --center 48.8566,2.3522 --zoom 12
  bouncemarker drop --at 10,10 --height 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, at, err := view.build(a.logger)
			if err != nil {
				return err
			}

			height := config.GetBounceOptions().Height
			if cmd.Flags().Changed("height") {
				h, _ := cmd.Flags().GetFloat64("height")
				height = core.Height(h)
			}

			drop, truePx := bounce.DropPoint(m, at, height)
			dropLL := m.ContainerPointToLatLng(drop)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "marker: %s at x=%.1f y=%.1f\n", at, truePx.X, truePx.Y)
			fmt.Fprintf(out, "drop:   %s at x=%.1f y=%.1f\n", dropLL, drop.X, drop.Y)
			fmt.Fprintf(out, "fall:   %.1fpx\n", truePx.Y-drop.Y)
			return nil
		},
	}
	view.register(cmd)
	cmd.Flags().Float64("height", -1, "Drop height in pixels, negative for the map top (default from config)")
	return cmd
}
