package app

import (
	"github.com/spf13/cobra"
)

var (
	configPath string

	// RootCmd is the root command for f1-sensors
	RootCmd = &cobra.Command{
		Use:   "f1-sensors",
		Short: "F1 standings and schedule sensors backed by a periodically refreshed cache",
		Long: `f1-sensors keeps the latest F1 driver standings, constructor standings and
season schedule from an Ergast-compatible API and serves them as pollable sensors.

Each resource is refreshed on its own schedule (update_frequency_sec, default 300).
When upstream data is missing or malformed the sensors report placeholder values
instead of disappearing.

Examples:
  # Serve sensors over HTTP
  f1-sensors serve

  # Fetch one resource and print the unwrapped document
  f1-sensors fetch season

  # Print the current sensor table
  f1-sensors sensors`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default: $F1_CONFIG_FILE)")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(fetchCmd)
	RootCmd.AddCommand(sensorsCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
