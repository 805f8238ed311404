// Lifxctl is a control utility for LIFX-compatible smart lights.
//
// It drives bulbs directly over the LAN UDP protocol (discovery, power,
// color, labels) and talks to the vendor cloud REST API for anything the
// LAN cannot answer (account-wide listings, scenes). An interactive
// dashboard provides live control of discovered bulbs.
//
// Usage:
//
//	lifxctl [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'lifxctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lifxctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lifxctl",
	Short: "LIFX Lighting Control Utility",
	Long: `A standalone utility for controlling LIFX-compatible smart lights.

Provides LAN discovery, direct bulb control (power, color, labels), an
interactive dashboard, and access to the vendor cloud API for lights,
scenes, and account-wide state changes.

If no command is specified, the interactive dashboard will launch
automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the dashboard when no subcommand provided
		return runDashboard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lifxctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
