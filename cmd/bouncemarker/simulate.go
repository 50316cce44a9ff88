package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/internal/scenario"
	"github.com/OCAP2/bouncemarker/internal/storage"
)

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Play a scenario and record its frames",
		Long: `Play a scenario file on a simulated clock. Every animation frame and
timeline event is recorded to the storage backend set in the config
(memory, sqlite, postgres or influx).

Examples:
  bouncemarker simulate drop.yaml
  bouncemarker simulate drop.yaml --storage sqlite
  bouncemarker simulate drop.yaml --output ./traces --start 2024-05-01T12:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSimulate(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.String("storage", "", "Storage backend (memory, sqlite, postgres, influx)")
	flags.String("output", "", "Directory the memory backend exports to")
	flags.String("start", "", "Simulated start time (RFC3339)")
	_ = viper.BindPFlag("storage.type", flags.Lookup("storage"))
	_ = viper.BindPFlag("storage.memory.outputDir", flags.Lookup("output"))
	return cmd
}

func (a *app) runSimulate(cmd *cobra.Command, path string) error {
	start := scenario.DefaultStart
	if s, _ := cmd.Flags().GetString("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}

	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	sc.SetDefaultFPS(config.GetFrameConfig().FPS)

	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to init %s storage: %w", storageCfg.Type, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Error("Failed to close storage", "error", err)
		}
	}()

	runner, err := scenario.NewRunner(sc, backend,
		scenario.WithLogger(a.logger),
		scenario.WithStart(start),
		scenario.WithDefaultOptions(config.GetBounceOptions()),
	)
	if err != nil {
		return err
	}

	res, err := runner.Run()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scenario %q: %d frames, %d steps, %d failed\n\n",
		sc.Name, res.Frames, res.Steps, len(res.Failures))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MARKER\tPOSITION\tON MAP\tBOUNCING\tFRAMES\tCOMPLETED")
	for _, name := range res.MarkerNames() {
		m := res.Markers[name]
		fmt.Fprintf(w, "%s\t%.6f,%.6f\t%t\t%t\t%d\t%d\n",
			name, m.Position.Lat, m.Position.Lng, m.OnMap, m.Bouncing, m.Frames, m.Callbacks)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, f := range res.Failures {
		fmt.Fprintf(out, "failed: %s\n", f)
	}
	if exp, ok := backend.(storage.Exporter); ok && exp.ExportedFilePath() != "" {
		fmt.Fprintf(out, "\nTrace written to %s\n", exp.ExportedFilePath())
	}
	return nil
}
