package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lifxctl/internal/protocol"
	"github.com/muurk/lifxctl/internal/version"
)

// Application branding constants
const (
	AppName   = "LIFX CONTROL DASHBOARD"
	GitHubURL = "github.com/muurk/lifxctl"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72  // Minimum supported terminal width
	MaxContentWidth  = 120 // Maximum content width before capping
)

// Color palette
var (
	// Primary colors
	PrimaryColor   = lipgloss.Color("#F5A623") // Amber
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	// Neutral colors
	TextColor      = lipgloss.Color("#FFFFFF") // White
	SubtleColor    = lipgloss.Color("#626262") // Gray
	BorderColor    = lipgloss.Color("#F5A623") // Amber (same as primary)
	HighlightColor = lipgloss.Color("#43BF6D") // Green (same as secondary)
)

// Common styles
var (
	// Title style - bold, padded
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0).
			MarginBottom(1)

	// Subtitle style
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	// Menu item style (selected)
	SelectedMenuItemStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(HighlightColor).
				Bold(true)

	// Error message style
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor)

	// Spinner style
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// Status line style for transient feedback
	StatusStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// RenderTitle renders a title with consistent styling
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSubtitle renders a subtitle with consistent styling
func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderError renders an error message
func RenderError(text string) string {
	return ErrorStyle.Render("✗ " + text)
}

// BuildHeaderContent creates header content with app name and GitHub URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// RenderApplicationContainer wraps screen content in the shared
// application chrome: bordered full-screen panel, header with name and
// version, footer with context-sensitive help text. Every screen's View
// goes through this so transitions keep a stable frame.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	if terminalWidth == 0 {
		terminalWidth = MinTerminalWidth
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth - 4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth - 4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent()),
		contentStyle.Render(content),
		footerStyle.Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top)

	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Left,
		lipgloss.Top,
		borderStyle.Render(inner),
	)
}

// FormatPower renders a power level as ON/OFF text. Any non-zero level
// counts as on, matching how devices report partial levels.
func FormatPower(level uint16) string {
	if level > 0 {
		return lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true).Render("ON")
	}
	return lipgloss.NewStyle().Foreground(SubtleColor).Bold(true).Render("OFF")
}

// RenderBrightnessBar renders a horizontal brightness gauge of the given
// width, colored with the bulb's current color.
func RenderBrightnessBar(c protocol.HSBK, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(float64(c.Brightness) / 65535.0 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	percent := int(float64(c.Brightness) / 65535.0 * 100)

	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(HSBKHex(c)))
	return fmt.Sprintf("%s %3d%%", barStyle.Render(bar), percent)
}

// HSBKHex approximates a device color as a terminal hex color. Hue,
// saturation, and brightness map through a standard HSV conversion;
// desaturated colors render as white regardless of kelvin.
func HSBKHex(c protocol.HSBK) string {
	h := float64(c.Hue) / 65535.0 * 360.0
	s := float64(c.Saturation) / 65535.0
	v := float64(c.Brightness) / 65535.0

	// Keep the swatch visible even when the bulb is dimmed right down
	if v < 0.3 {
		v = 0.3
	}

	chroma := v * s
	x := chroma * (1 - math.Abs(math.Mod(h/60.0, 2)-1))
	m := v - chroma

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}

	return fmt.Sprintf("#%02X%02X%02X",
		int((r+m)*255), int((g+m)*255), int((b+m)*255))
}
