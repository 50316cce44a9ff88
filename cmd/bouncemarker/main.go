// bouncemarker drops map markers onto a simulated map with a bounce
// animation and records every frame.
//
// Usage:
//
//	bouncemarker simulate <scenario.yaml>  - Play a scenario and record its frames
//	bouncemarker bounce                    - Animate one marker in real time
//	bouncemarker drop                      - Show where a marker is dropped from
//	bouncemarker ease                      - Print the bounce easing curve
//
// Global flags:
//
//	--config <dir>       - Directory holding bouncemarker.cfg.json (default: .)
//	--log-level <level>  - debug, info, warn or error
//	--log-file           - Also write logs to a file in logsDir
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OCAP2/bouncemarker/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := newApp()

	rootCmd := &cobra.Command{
		Use:   "bouncemarker",
		Short: "Bounce markers onto a map and record how they fall",
		Long: `bouncemarker animates map markers dropping onto their position with an
ease-out-bounce curve. Scenarios are played on a simulated clock so every
run is reproducible, and frames are recorded to the configured storage.

Available commands:
  simulate  - Play a scenario file and record its frames
  bounce    - Animate one marker in real time
  drop      - Show where a marker is dropped from
  ease      - Print the bounce easing curve

Examples:
  bouncemarker simulate scenarios/paris.yaml
  bouncemarker simulate scenarios/paris.yaml --storage sqlite
  bouncemarker bounce --at 48.8566,2.3522 --loop 3
  bouncemarker drop --at 48.8566,2.3522 --height 120
  bouncemarker ease --steps 20`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", ".", "Directory holding "+config.FileName)
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-file", false, "Also write logs to a file in logsDir")
	_ = viper.BindPFlag("logLevel", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logToFile", flags.Lookup("log-file"))

	rootCmd.AddCommand(newSimulateCmd(a))
	rootCmd.AddCommand(newBounceCmd(a))
	rootCmd.AddCommand(newDropCmd(a))
	rootCmd.AddCommand(newEaseCmd())
	return rootCmd
}
