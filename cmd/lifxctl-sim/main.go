// Lifxctl-sim is a protocol-faithful simulated bulb for testing lifxctl.
//
// It answers discovery probes, acknowledges and applies state changes, and
// echoes probes the way real hardware does, so the CLI and dashboard can be
// exercised without bulbs on the network. An optional WebSocket monitor
// streams every datagram the simulator handles, and captures can be written
// to disk for offline analysis.
//
// Usage:
//
//	lifxctl-sim serve [flags]
//
// See 'lifxctl-sim serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/lifxctl/internal/sim"
	"github.com/muurk/lifxctl/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lifxctl-sim",
	Short: "Simulated Smart Bulb",
	Long: `A standalone simulated smart bulb for testing lifxctl.

The simulator binds a UDP socket and behaves like real hardware: it answers
broadcast discovery probes, applies power, color, and label changes, sends
acknowledgements when they are requested, and echoes probe payloads back
verbatim.

Point 'lifxctl scan' at the machine running the simulator to find it, then
drive it with the normal commands.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host        string
	port        int
	bulbID      string
	bulbLabel   string
	monitorAddr string
	captureDir  string
	logLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulated bulb",
	Long: `Start a simulated bulb listening for UDP datagrams.

By default the simulator listens on the standard bulb port on all
interfaces. Run several simulators on one machine by giving each a
different --port and --id.

To watch the datagrams the simulator handles in real time, enable the
WebSocket monitor with --monitor and connect to ws://<addr>/watch. To keep
captures for offline analysis, point --capture-dir at a directory where
JSON datagram records will be written.`,
	Example: `  # Standard port, default identity
  lifxctl-sim serve

  # Two bulbs on one machine
  lifxctl-sim serve --port 56701 --id d073d5000001 --label "Sim One"
  lifxctl-sim serve --port 56702 --id d073d5000002 --label "Sim Two"

  # With the WebSocket monitor and capture logging
  lifxctl-sim serve --monitor 127.0.0.1:8089 --capture-dir ./captures

  # Verbose protocol logging
  lifxctl-sim serve --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Bind address (empty = listen on all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 56700, "UDP port to listen on (0 picks an ephemeral port)")
	serveCmd.Flags().StringVar(&bulbID, "id", sim.DefaultID, "Bulb hardware identity (12 hex digits)")
	serveCmd.Flags().StringVar(&bulbLabel, "label", "", "Initial bulb label")
	serveCmd.Flags().StringVar(&monitorAddr, "monitor", "", "WebSocket monitor bind address (disabled if not specified)")
	serveCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Directory to write datagram capture logs (disabled if not specified)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Validate capture directory if specified
	if captureDir != "" {
		info, err := os.Stat(captureDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("capture directory does not exist: %s", captureDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access capture directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture path is not a directory: %s", captureDir)
		}
	}

	// Create simulator configuration
	config := &sim.Config{
		Host:        host,
		Port:        port,
		ID:          bulbID,
		Label:       bulbLabel,
		MonitorAddr: monitorAddr,
		CaptureDir:  captureDir,
		LogLevel:    logLevel,
	}

	// Create and run the simulator
	srv, err := sim.New(config)
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	return srv.Run()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lifxctl-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}
