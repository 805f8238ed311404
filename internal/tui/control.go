package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/lifxctl/internal/discovery"
	"github.com/muurk/lifxctl/internal/lan"
	"github.com/muurk/lifxctl/internal/protocol"
)

// opWindow bounds how long control operations wait for their
// acknowledgement; state refreshes use the transport default.
const opWindow = 400 * time.Millisecond

// brightStep is one brightness keypress, about 10% of full scale.
const brightStep = 6553

// hueStep is one hue keypress, about 22 degrees around the wheel.
const hueStep = 4096

// Messages for async operations
type lightStateMsg struct {
	state *protocol.LightState
	err   error
}

type opDoneMsg struct {
	action string
	err    error
}

// controlKeyMap defines key bindings for the control screen
type controlKeyMap struct {
	Toggle     key.Binding
	BrightUp   key.Binding
	BrightDown key.Binding
	HueLeft    key.Binding
	HueRight   key.Binding
	Refresh    key.Binding
	Back       key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k controlKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.BrightUp, k.BrightDown, k.HueLeft, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k controlKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.BrightUp, k.BrightDown},
		{k.HueLeft, k.HueRight, k.Refresh},
		{k.Back, k.Quit},
	}
}

// ControlModel represents the single-bulb control screen state
type ControlModel struct {
	Device *discovery.Device

	// Last known bulb state; nil until the first refresh lands
	State *protocol.LightState
	Err   error

	// Busy is set while a send or refresh is in flight
	Busy      bool
	StatusMsg string

	// UI state
	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    controlKeyMap

	// Navigation results
	BackRequested bool

	opts Options
}

// NewControlModel creates a control screen for one bulb
func NewControlModel(device *discovery.Device, opts Options) ControlModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	keys := controlKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "toggle power"),
		),
		BrightUp: key.NewBinding(
			key.WithKeys("up", "k", "+"),
			key.WithHelp("↑", "brighter"),
		),
		BrightDown: key.NewBinding(
			key.WithKeys("down", "j", "-"),
			key.WithHelp("↓", "dimmer"),
		),
		HueLeft: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/→", "hue"),
		),
		HueRight: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "hue"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	return ControlModel{
		Device:  device,
		Spinner: s,
		Help:    help.New(),
		Keys:    keys,
		Busy:    true,
		opts:    opts,
	}
}

// Init fetches the bulb's current state
func (m ControlModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.Spinner.Tick)
}

// refreshCmd queries the bulb for its full light state
func (m ControlModel) refreshCmd() tea.Cmd {
	opts, device := m.opts, m.Device
	return func() tea.Msg {
		datagrams, err := opts.Client.Send(context.Background(), 0, lan.Request{
			Type:        protocol.TypeLightGet,
			Target:      device.Target,
			ResRequired: true,
			Addr:        device.Addr(),
		})
		if err != nil {
			return lightStateMsg{err: err}
		}

		for _, dg := range datagrams {
			frame, err := protocol.Decode(dg.Data)
			if err != nil || frame.Type != protocol.TypeLightState {
				continue
			}
			if frame.Target != device.Target && frame.Target != protocol.TargetBroadcast {
				continue
			}
			st, err := protocol.ParseLightState(frame.Payload)
			if err != nil {
				continue
			}
			return lightStateMsg{state: st}
		}
		return lightStateMsg{err: fmt.Errorf("no state reply from %s", device.ID)}
	}
}

// setPowerCmd turns the bulb on or off with the configured fade
func (m ControlModel) setPowerCmd(level uint16) tea.Cmd {
	opts, device, fade := m.opts, m.Device, m.fade()
	return func() tea.Msg {
		_, err := opts.Client.Send(context.Background(), opWindow, lan.Request{
			Type:        protocol.TypeLightSetPower,
			Payload:     protocol.BuildLightSetPower(level, fade),
			Target:      device.Target,
			AckRequired: true,
			Addr:        device.Addr(),
		})
		return opDoneMsg{action: "power", err: err}
	}
}

// setColorCmd pushes a full color change with the configured fade
func (m ControlModel) setColorCmd(color protocol.HSBK) tea.Cmd {
	opts, device, fade := m.opts, m.Device, m.fade()
	return func() tea.Msg {
		_, err := opts.Client.Send(context.Background(), opWindow, lan.Request{
			Type:        protocol.TypeLightSetColor,
			Payload:     protocol.BuildSetColor(color, fade),
			Target:      device.Target,
			AckRequired: true,
			Addr:        device.Addr(),
		})
		return opDoneMsg{action: "color", err: err}
	}
}

// fade returns the configured default transition duration
func (m ControlModel) fade() time.Duration {
	if m.opts.Registry != nil && m.opts.Registry.Preferences != nil {
		return time.Duration(m.opts.Registry.Preferences.DefaultDuration * float64(time.Second))
	}
	return time.Second
}

// Update handles messages and updates the model
func (m ControlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case lightStateMsg:
		m.Busy = false
		if msg.err != nil {
			m.Err = msg.err
		} else {
			m.State = msg.state
			m.Err = nil
		}

	case opDoneMsg:
		if msg.err != nil {
			m.Busy = false
			m.Err = msg.err
			return m, nil
		}
		m.StatusMsg = fmt.Sprintf("✓ %s updated", msg.action)
		// Re-read so the display shows what the bulb accepted
		return m, m.refreshCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateKeys handles keyboard input on the control screen
func (m ControlModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.BackRequested = true
		return m, nil
	}

	// One operation at a time
	if m.Busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Toggle):
		if m.State == nil {
			return m, nil
		}
		level := uint16(protocol.PowerOn)
		if m.State.Power > 0 {
			level = protocol.PowerOff
		}
		return m.startOp(m.setPowerCmd(level))

	case key.Matches(msg, m.Keys.BrightUp):
		return m.adjustColor(func(c *protocol.HSBK) {
			c.Brightness = clampAdd(c.Brightness, brightStep)
		})

	case key.Matches(msg, m.Keys.BrightDown):
		return m.adjustColor(func(c *protocol.HSBK) {
			c.Brightness = clampAdd(c.Brightness, -brightStep)
		})

	case key.Matches(msg, m.Keys.HueLeft):
		return m.adjustColor(func(c *protocol.HSBK) {
			c.Hue -= hueStep
			c.Saturation = 0xFFFF
		})

	case key.Matches(msg, m.Keys.HueRight):
		return m.adjustColor(func(c *protocol.HSBK) {
			c.Hue += hueStep
			c.Saturation = 0xFFFF
		})

	case key.Matches(msg, m.Keys.Refresh):
		m.Busy = true
		m.StatusMsg = ""
		return m, tea.Batch(m.refreshCmd(), m.Spinner.Tick)
	}

	return m, nil
}

// adjustColor applies one color tweak to the last known state and sends it
func (m ControlModel) adjustColor(tweak func(*protocol.HSBK)) (tea.Model, tea.Cmd) {
	if m.State == nil {
		return m, nil
	}
	color := m.State.Color
	tweak(&color)
	return m.startOp(m.setColorCmd(color))
}

// startOp marks the model busy and launches the operation
func (m ControlModel) startOp(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.Busy = true
	m.StatusMsg = ""
	m.Err = nil
	return m, tea.Batch(cmd, m.Spinner.Tick)
}

// clampAdd adds a signed step to an unsigned level without wrapping
func clampAdd(v uint16, delta int) uint16 {
	n := int(v) + delta
	if n < 0 {
		return 0
	}
	if n > 0xFFFF {
		return 0xFFFF
	}
	return uint16(n)
}

// View renders the control screen
func (m ControlModel) View() string {
	var b strings.Builder

	name := displayName(m.opts.Registry, m.Device)
	b.WriteString(RenderTitle(name))
	b.WriteString("\n")
	b.WriteString(RenderSubtitle(fmt.Sprintf("  %s at %s:%d", m.Device.ID, m.Device.IP, m.Device.Port)))
	b.WriteString("\n\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n")

	case m.State == nil:
		b.WriteString(fmt.Sprintf("  %s Reading bulb state...\n", m.Spinner.View()))

	default:
		b.WriteString(m.renderState())
	}

	b.WriteString("\n")
	if m.Busy && m.State != nil {
		b.WriteString(fmt.Sprintf("  %s Working...\n", m.Spinner.View()))
	} else if m.StatusMsg != "" {
		b.WriteString("  " + StatusStyle.Render(m.StatusMsg) + "\n")
	}

	helpText := m.Help.View(m.Keys)
	return RenderApplicationContainer(b.String(), helpText, m.Width, m.Height)
}

// renderState renders the last known bulb state block
func (m ControlModel) renderState() string {
	st := m.State
	swatch := lipgloss.NewStyle().
		Foreground(lipgloss.Color(HSBKHex(st.Color))).
		Render("██████")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Power:      %s\n", FormatPower(st.Power)))
	b.WriteString(fmt.Sprintf("  Brightness: %s\n", RenderBrightnessBar(st.Color, 30)))
	b.WriteString(fmt.Sprintf("  Color:      %s  %s\n", swatch, st.Color))
	if st.Label != "" {
		b.WriteString(fmt.Sprintf("  Label:      %s\n", st.Label))
	}
	return b.String()
}
