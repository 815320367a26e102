package cmd

import (
	"github.com/bnema/wlcore/internal/config"
	"github.com/bnema/wlcore/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Version is set during build.
	Version = "0.1.0-dev"

	logLevel string

	rootCmd = &cobra.Command{
		Use:   "compositord",
		Short: "wlcore demo host dispatcher",
		Long: `compositord is a minimal host dispatcher over the wlcore protocol
core: Seat, DataDevice, and PointerConstraints. It has no wl_resource wire
transport of its own (that is the real compositor's job, see SPEC_FULL.md);
instead it wires the core up to logging listeners and drives a scripted
input scenario so the core's behavior can be observed end to end.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetLevel(logLevel)
			return config.Init()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
