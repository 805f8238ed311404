package ui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PacketLog represents a box for displaying raw datagram traffic.
// Used in verbose mode to show the actual bytes sent to and received
// from bulbs.
type PacketLog struct {
	Title    string   // e.g., "Datagram Log"
	Lines    []string // One line per datagram
	Width    int      // Terminal width
	MaxLines int      // Maximum lines to display (0 = unlimited)
}

// NewPacketLog creates a new empty datagram log box
func NewPacketLog() *PacketLog {
	return &PacketLog{
		Title:    "Datagram Log",
		Width:    GetTerminalWidth(),
		MaxLines: 0,
	}
}

// SetWidth sets the terminal width for responsive rendering
func (g *PacketLog) SetWidth(width int) *PacketLog {
	g.Width = width
	return g
}

// SetTitle sets a custom title for the box
func (g *PacketLog) SetTitle(title string) *PacketLog {
	g.Title = title
	return g
}

// SetMaxLines limits the number of lines displayed
func (g *PacketLog) SetMaxLines(max int) *PacketLog {
	g.MaxLines = max
	return g
}

// AddSend records an outgoing datagram
func (g *PacketLog) AddSend(addr string, data []byte) *PacketLog {
	g.Lines = append(g.Lines, formatPacketLine("→", addr, data))
	return g
}

// AddReceive records an incoming datagram
func (g *PacketLog) AddReceive(addr string, data []byte) *PacketLog {
	g.Lines = append(g.Lines, formatPacketLine("←", addr, data))
	return g
}

// AddNote records a free-form line, e.g. "no replies within window"
func (g *PacketLog) AddNote(note string) *PacketLog {
	g.Lines = append(g.Lines, note)
	return g
}

// Empty reports whether anything has been recorded
func (g *PacketLog) Empty() bool {
	return len(g.Lines) == 0
}

func formatPacketLine(arrow, addr string, data []byte) string {
	return fmt.Sprintf("%s %-21s %3dB  %s", arrow, addr, len(data), hex.EncodeToString(data))
}

// Render returns the styled datagram log box as a string
func (g *PacketLog) Render() string {
	width := g.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := g.Lines
	if g.MaxLines > 0 && len(lines) > g.MaxLines {
		lines = lines[:g.MaxLines]
		lines = append(lines, "... (output truncated)")
	}

	titleStyled := PacketLogTitleStyle.Render(g.Title)
	contentStyled := PacketLogContentStyle.Render(strings.Join(lines, "\n"))

	inner := lipgloss.JoinVertical(lipgloss.Left, titleStyled, "", contentStyled)

	boxWidth := width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(boxWidth).
		Padding(0, 1).
		MarginLeft(2).
		Render(inner)
}

// String implements fmt.Stringer
func (g *PacketLog) String() string {
	return g.Render()
}
