package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lifxctl/internal/discovery"
)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	devices []*discovery.Device
	err     error
}

// scanKeyMap defines key bindings for the bulb list
type scanKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k scanKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k scanKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Quit},
	}
}

// scanningKeyMap defines key bindings while a scan is running
type scanningKeyMap struct {
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (s scanningKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{s.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (s scanningKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{s.Quit},
	}
}

// emptyKeyMap defines key bindings when no bulbs were found
type emptyKeyMap struct {
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (e emptyKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{e.Rescan, e.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (e emptyKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{e.Rescan, e.Quit},
	}
}

// bulbItem wraps a discovered bulb for use with bubbles/list
type bulbItem struct {
	device *discovery.Device
	name   string
}

// FilterValue lets the list filter by name, ID or address
func (b bulbItem) FilterValue() string {
	return b.name + " " + b.device.ID + " " + b.device.IP
}

// Title returns the bulb name for list display
func (b bulbItem) Title() string {
	return b.name
}

// Description returns bulb details for list display
func (b bulbItem) Description() string {
	return fmt.Sprintf("%s:%d • %s", b.device.IP, b.device.Port, b.device.ID)
}

// bulbDelegate renders one bulb card in the list
type bulbDelegate struct {
	width int
}

func (d bulbDelegate) Height() int { return 7 }

func (d bulbDelegate) Spacing() int { return 1 }

func (d bulbDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d bulbDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	bulb, ok := item.(bulbItem)
	if !ok {
		return
	}

	device := bulb.device
	selected := index == m.Index()

	var content strings.Builder
	if selected {
		content.WriteString(SelectedMenuItemStyle.Render("→ " + bulb.name))
	} else {
		content.WriteString("  " + bulb.name)
	}
	content.WriteString("\n\n")

	content.WriteString(fmt.Sprintf("  ID:      %s\n", device.ID))
	content.WriteString(fmt.Sprintf("  Address: %s:%d\n", device.IP, device.Port))
	content.WriteString(fmt.Sprintf("  Found:   %s", device.Source))

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(1, 2).
		MarginLeft(2)

	cardWidth := d.width - 6
	if cardWidth < MinTerminalWidth-6 {
		cardWidth = MinTerminalWidth - 6
	}
	if cardWidth > MaxContentWidth-6 {
		cardWidth = MaxContentWidth - 6
	}
	cardStyle = cardStyle.Width(cardWidth)

	if selected {
		cardStyle = cardStyle.BorderForeground(HighlightColor)
	}

	fmt.Fprint(w, cardStyle.Render(content.String()))
}

// ScanModel represents the bulb discovery screen state
type ScanModel struct {
	// Discovery state
	Scanning bool
	BulbList list.Model
	Selected bool
	Err      error

	// UI state
	Width         int
	Height        int
	Spinner       spinner.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          scanKeyMap
	ScanningKeys  scanningKeyMap
	EmptyKeys     emptyKeyMap

	opts Options
}

// NewScanModel creates a new bulb discovery screen model
func NewScanModel(opts Options) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	delegate := bulbDelegate{width: MinTerminalWidth}
	bulbList := list.New([]list.Item{}, delegate, 0, 0)
	bulbList.Title = "Discovered Bulbs"
	bulbList.SetShowStatusBar(false)
	bulbList.SetFilteringEnabled(true)
	bulbList.Styles.Title = TitleStyle

	h := help.New()

	keys := scanKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "control"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}

	scanningKeys := scanningKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	emptyKeys := emptyKeyMap{
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	return ScanModel{
		BulbList:     bulbList,
		Spinner:      s,
		Help:         h,
		Keys:         keys,
		ScanningKeys: scanningKeys,
		EmptyKeys:    emptyKeys,
		opts:         opts,
	}
}

// Init starts scanning immediately
func (m ScanModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		m.scanCmd(),
		m.Spinner.Tick,
	)
}

// scanCmd performs one LAN discovery pass and resolves labels for the
// bulbs it finds.
func (m ScanModel) scanCmd() tea.Cmd {
	opts := m.opts
	return func() tea.Msg {
		scanner := discovery.NewLANScanner(opts.Client)
		if opts.Window > 0 {
			scanner.Window = opts.Window
		}
		scanner.Port = opts.Port

		ctx := context.Background()
		devices, err := scanner.Scan(ctx)
		if err == nil {
			_ = scanner.ResolveLabels(ctx, devices)
		}
		return scanCompleteMsg{devices: devices, err: err}
	}
}

// Update handles messages and updates the model
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.BulbList.SetWidth(msg.Width - 4)
		m.BulbList.SetHeight(msg.Height - 10)

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.devices))
		for i, dev := range msg.devices {
			items[i] = bulbItem{device: dev, name: displayName(m.opts.Registry, dev)}
		}
		m.BulbList.SetItems(items)

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.Scanning {
		m.BulbList, cmd = m.BulbList.Update(msg)
	}

	return m, cmd
}

// updateKeys handles keyboard input on the bulb list
func (m ScanModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Scanning {
		// Only quit is honored while the scan window is open
		return m, nil
	}

	// While the filter input is open, every key belongs to the list
	if m.BulbList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.BulbList, cmd = m.BulbList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter", " ":
		if m.BulbList.SelectedItem() != nil {
			m.Selected = true
		}
		return m, nil

	case "r":
		m.BulbList.SetItems([]list.Item{})
		m.Err = nil
		return m, tea.Batch(
			func() tea.Msg { return scanStartMsg{} },
			m.scanCmd(),
			m.Spinner.Tick,
		)
	}

	// Let the list handle navigation and filtering
	var cmd tea.Cmd
	m.BulbList, cmd = m.BulbList.Update(msg)
	return m, cmd
}

// View renders the discovery screen
func (m ScanModel) View() string {
	width := m.Width
	if width == 0 {
		width = MinTerminalWidth
	}

	var content string
	if m.Scanning {
		content = m.renderScanning(width)
	} else {
		content = m.renderResults()
	}

	var helpText string
	if m.Scanning {
		helpText = m.Help.View(m.ScanningKeys)
	} else if len(m.BulbList.Items()) > 0 {
		helpText = m.Help.View(m.Keys)
	} else {
		helpText = m.Help.View(m.EmptyKeys)
	}

	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

// renderScanning renders a centered scanning display
func (m ScanModel) renderScanning(width int) string {
	elapsed := int(time.Since(m.ScanStartTime).Seconds())

	title := fmt.Sprintf("%s SEARCHING FOR BULBS", m.Spinner.View())
	subtitle := "Broadcasting a discovery probe on your network..."
	elapsedText := fmt.Sprintf("Elapsed: %ds", elapsed)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(title),
		"",
		SubtitleStyle.Render(subtitle),
		"",
		SubtitleStyle.Render(elapsedText),
		"",
	)

	return lipgloss.Place(width, 0, lipgloss.Center, lipgloss.Top, content)
}

// renderResults renders the bulb list or a "nothing found" message
func (m ScanModel) renderResults() string {
	var b strings.Builder

	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(RenderError(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check that you are on the same network as your bulbs\n")
		b.WriteString("    • Some networks block UDP broadcast; try a direct scan with the CLI\n")
		b.WriteString("    • Press 'r' to scan again\n")

	} else if len(m.BulbList.Items()) == 0 {
		warningStyle := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
		b.WriteString("  ")
		b.WriteString(warningStyle.Render("⚠ No bulbs found on your network"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check that your bulbs are powered at the switch\n")
		b.WriteString("    • Check that you are on the same network as your bulbs\n")
		b.WriteString("    • Press 'r' to scan again\n")
		b.WriteString("\n")

	} else {
		b.WriteString(m.BulbList.View())
	}

	return b.String()
}

// GetSelectedDevice returns the selected bulb (if any)
func (m ScanModel) GetSelectedDevice() *discovery.Device {
	if m.Selected {
		if item, ok := m.BulbList.SelectedItem().(bulbItem); ok {
			return item.device
		}
	}
	return nil
}
