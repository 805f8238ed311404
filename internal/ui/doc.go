// Package ui provides terminal UI components for the lifxctl CLI.
//
// This package uses Lipgloss to render polished terminal output for
// one-shot commands. Unlike the interactive dashboard in internal/tui,
// these components follow a "run once and exit" pattern - they render
// output compellingly but don't require user interaction.
//
// # Architecture
//
// The package provides four main component types:
//
//   - Header: Command banner showing operation name and parameters
//   - Progress: Step list with real-time status markers
//   - Result: Success/failure/warning boxes with styled information
//   - PacketLog: Raw datagram box for verbose mode
//
// Multi-step commands orchestrate these through a Runner, which manages
// the header, step, and result flow. Single-step commands use the
// Printer helpers directly.
//
// # Usage Pattern
//
// A multi-step command like scan uses this package by:
//
//  1. Creating a Runner with command metadata
//  2. Calling RunWithResult() with its operation function
//  3. The operation reports progress via a step callback
//  4. The Runner handles all rendering automatically
//
// Example:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:      "Network scan",
//	    Command:    "lifxctl scan",
//	    Params:     map[string]string{"Broadcast": "255.255.255.255:56700"},
//	    TotalSteps: 2,
//	    StepNames:  []string{"Broadcasting discovery probe", "Resolving labels"},
//	    Verbose:    verbose,
//	})
//
//	details, err := runner.RunWithResult(ctx, func(onStep ui.StepCallback) (map[string]string, error) {
//	    onStep(1, "", ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, "", ui.StepComplete, "4 bulbs")
//	    return map[string]string{"Bulbs found": "4"}, nil
//	})
//
// # Logging Integration
//
// This package expects logging to be controlled via the LIFXCTL_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly. Set LIFXCTL_LOG_LEVEL to
// "debug", "info", "warn", or "error" to enable logging output.
//
// # Verbose Mode
//
// When --verbose is passed to LAN commands, the PacketLog component displays
// the raw datagrams sent and received in a styled box after the result. This
// is useful for debugging addressing and reply problems.
package ui
