package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OCAP2/bouncemarker/internal/bounce"
)

const easeBarWidth = 40

func newEaseCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "ease",
		Short: "Print the bounce easing curve",
		Long: `Print the ease-out-bounce curve sampled at evenly spaced progress values.

Examples:
  bouncemarker ease
  bouncemarker ease --steps 40`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROGRESS\tEASED\t")
			for i := 0; i <= steps; i++ {
				p := float64(i) / float64(steps)
				e := bounce.EaseOutBounce(p)
				bar := strings.Repeat("#", int(e*easeBarWidth+0.5))
				fmt.Fprintf(w, "%.3f\t%.4f\t%s\n", p, e, bar)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 10, "Number of intervals to sample")
	return cmd
}
