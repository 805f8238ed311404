package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Printer provides methods for printing UI components to a writer.
// This is the primary way commands should output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintLines writes multiple lines
func (p *Printer) PrintLines(lines ...string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(p.out, line)
	}
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Newline()
	p.Println(NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintFailure prints a failure result box with troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, troubleshooting []string) {
	p.Newline()
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details map[string]string) {
	p.Newline()
	p.Println(NewWarningResult(title, details).SetWidth(p.width).Render())
}

// PrintPacketLog prints a datagram log box (for verbose mode)
func (p *Printer) PrintPacketLog(log *PacketLog) {
	if log == nil || log.Empty() {
		return
	}
	p.Newline()
	p.Println(log.SetWidth(p.width).Render())
}

// --- Package-level helpers for commands that don't hold a Printer ---

// PrintCommandHeader prints a styled command header to stdout
func PrintCommandHeader(title, command string, params map[string]string) {
	NewPrinter(nil).PrintHeader(title, command, params)
}

// PrintSuccess prints a styled success result to stdout
func PrintSuccess(title string, details map[string]string) {
	NewPrinter(nil).PrintSuccess(title, details)
}

// PrintFailure prints a styled failure result to stdout
func PrintFailure(title string, err error, troubleshooting []string) {
	NewPrinter(nil).PrintFailure(title, err, troubleshooting)
}

// PrintWarning prints a styled warning result to stdout
func PrintWarning(title string, details map[string]string) {
	NewPrinter(nil).PrintWarning(title, details)
}

// PrintPacketLog prints a styled datagram log to stdout
func PrintPacketLog(log *PacketLog) {
	NewPrinter(nil).PrintPacketLog(log)
}

// sortedKeys returns the map's keys in sorted order so rendered
// key-value sections are stable between runs.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
