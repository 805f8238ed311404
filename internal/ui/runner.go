package ui

import (
	"context"
	"os"
	"time"
)

// RunnerConfig holds configuration for a multi-step command execution
type RunnerConfig struct {
	Title      string            // Command title (e.g., "Network scan")
	Command    string            // Full command (e.g., "lifxctl scan")
	Params     map[string]string // Parameters to display in header
	TotalSteps int               // Total number of steps (for progress)
	StepNames  []string          // Names for each step
	Verbose    bool              // Whether to show the datagram log
	Output     *Printer          // Output printer (default: stdout)
}

// Runner orchestrates the UI for a multi-step command.
// It manages the header, step, and result flow and provides
// callbacks for reporting progress.
type Runner struct {
	config    RunnerConfig
	header    *Header
	progress  *Progress
	printer   *Printer
	packets   *PacketLog
	startTime time.Time
	width     int
}

// NewRunner creates a new runner for a multi-step command
func NewRunner(config RunnerConfig) *Runner {
	printer := config.Output
	if printer == nil {
		printer = NewPrinter(os.Stdout)
	}

	width := printer.Width()

	header := NewHeader(config.Title, config.Command, config.Params)
	header.SetWidth(width)

	var prog *Progress
	if config.TotalSteps > 0 {
		prog = NewProgress("", config.TotalSteps)
		prog.SetWidth(width)
		if len(config.StepNames) > 0 {
			prog.SetStepNames(config.StepNames)
		}
	}

	return &Runner{
		config:   config,
		header:   header,
		progress: prog,
		printer:  printer,
		packets:  NewPacketLog(),
		width:    width,
	}
}

// Packets returns the datagram log so operations can record traffic.
// The log is printed after the result when Verbose is set.
func (r *Runner) Packets() *PacketLog {
	return r.packets
}

// Operation is the function signature for the work a Runner drives.
// The operation receives a StepCallback to report progress.
type Operation func(onStep StepCallback) error

// Run executes the operation with UI updates.
// It displays the header, tracks progress, and shows the result.
func (r *Runner) Run(ctx context.Context, operation Operation) error {
	_, err := r.RunWithResult(ctx, func(onStep StepCallback) (map[string]string, error) {
		return nil, operation(onStep)
	})
	return err
}

// RunWithResult executes the operation and displays the returned
// details in the success box.
func (r *Runner) RunWithResult(ctx context.Context, operation func(onStep StepCallback) (map[string]string, error)) (map[string]string, error) {
	r.startTime = time.Now()

	r.printer.Println(r.header.Render())
	r.printer.Newline()

	details, err := operation(r.createStepCallback())
	duration := time.Since(r.startTime)

	if err != nil {
		r.printFailure(err)
	} else {
		r.printSuccess(details, duration)
	}

	return details, err
}

// createStepCallback creates the step callback function
func (r *Runner) createStepCallback() StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if r.progress == nil {
			return
		}

		if name != "" && stepNumber > 0 && stepNumber <= len(r.progress.Steps) {
			r.progress.Steps[stepNumber-1].Name = name
		}

		r.progress.UpdateStep(stepNumber, status, message)

		if status == StepComplete || status == StepFailed || status == StepSkipped {
			step := r.progress.Steps[stepNumber-1]
			r.printer.Println(r.progress.renderStepLine(step))
		} else if status == StepRunning {
			// Running lines end with \r so the completed line overwrites them
			step := r.progress.Steps[stepNumber-1]
			r.printer.Print(r.progress.renderStepLine(step) + "\r")
		}
	}
}

// printSuccess prints a success result with the given details
func (r *Runner) printSuccess(details map[string]string, duration time.Duration) {
	if details == nil {
		details = make(map[string]string)
	}
	details["Duration"] = duration.Round(time.Millisecond).String()

	r.printer.PrintSuccess(r.config.Title+" complete", details)

	if r.config.Verbose {
		r.printer.PrintPacketLog(r.packets)
	}
}

// printFailure prints a failure result with troubleshooting
func (r *Runner) printFailure(err error) {
	troubleshooting := []string{
		"Check the bulbs have power and are on the same network",
		"Some routers block UDP broadcast between WiFi clients",
		"Try a longer collection window with --window",
		"Run with --verbose to see the raw datagrams",
	}

	r.printer.PrintFailure(r.config.Title+" failed", err, troubleshooting)

	if r.config.Verbose {
		r.printer.PrintPacketLog(r.packets)
	}
}
