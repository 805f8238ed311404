package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/lifxctl/internal/config"
	"github.com/muurk/lifxctl/internal/discovery"
	"github.com/muurk/lifxctl/internal/lan"
)

// Options carries the shared dependencies every screen needs: the LAN
// client for bulb traffic and the registry for nicknames and
// preferences. Registry may be nil.
type Options struct {
	Client   *lan.Client
	Registry *config.Registry

	// Window is the discovery listen window; zero uses the scanner
	// default.
	Window time.Duration

	// Port is the UDP port discovery probes go to; zero uses the
	// protocol default.
	Port int
}

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenScan    Screen = "scan"
	ScreenControl Screen = "control"
)

// AppModel is the top-level coordinator model that manages screen
// transitions between the bulb list and the control view.
type AppModel struct {
	CurrentScreen Screen

	ScanModel    ScanModel
	ControlModel ControlModel

	SelectedDevice *discovery.Device

	Width  int
	Height int

	opts Options
}

// NewAppModel creates a new application model starting at the specified
// screen. device is only consulted when starting directly on the
// control screen.
func NewAppModel(startScreen Screen, device *discovery.Device, opts Options) AppModel {
	model := AppModel{
		CurrentScreen:  startScreen,
		SelectedDevice: device,
		ScanModel:      NewScanModel(opts),
		opts:           opts,
	}

	if startScreen == ScreenControl && device != nil {
		model.ControlModel = NewControlModel(device, opts)
	}

	return model
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenScan:
		return m.ScanModel.Init()
	case ScreenControl:
		return m.ControlModel.Init()
	default:
		return nil
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.ScanModel.Width = msg.Width
		m.ScanModel.Height = msg.Height
		m.ControlModel.Width = msg.Width
		m.ControlModel.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenScan:
		updated, c := m.ScanModel.Update(msg)
		m.ScanModel = updated.(ScanModel)
		cmd = c

		if m.ScanModel.Selected {
			m.ScanModel.Selected = false
			if device := m.ScanModel.GetSelectedDevice(); device != nil {
				m.SelectedDevice = device
				m.CurrentScreen = ScreenControl
				m.ControlModel = NewControlModel(device, m.opts)
				m.ControlModel.Width = m.Width
				m.ControlModel.Height = m.Height
				return m, m.ControlModel.Init()
			}
		}

		// Quit from the list once scanning and filtering are done
		if !m.ScanModel.Scanning && m.ScanModel.BulbList.FilterState() != list.Filtering {
			if keyMsg, ok := msg.(tea.KeyMsg); ok {
				if keyMsg.String() == "q" || keyMsg.String() == "esc" {
					return m, tea.Quit
				}
			}
		}

	case ScreenControl:
		updated, c := m.ControlModel.Update(msg)
		m.ControlModel = updated.(ControlModel)
		cmd = c

		if m.ControlModel.BackRequested {
			// The bulb list keeps its previous results when returning
			m.CurrentScreen = ScreenScan
			m.ScanModel.Selected = false
			return m, nil
		}

		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "q" {
			return m, tea.Quit
		}
	}

	return m, cmd
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenScan:
		return m.ScanModel.View()
	case ScreenControl:
		return m.ControlModel.View()
	default:
		return "Unknown screen"
	}
}

// displayName resolves what to call a bulb: configured nickname first,
// then the device-reported label, then the raw hardware ID.
func displayName(reg *config.Registry, dev *discovery.Device) string {
	if reg != nil {
		if entry := reg.GetDevice(dev.ID); entry != nil && entry.Nickname != "" {
			return entry.Nickname
		}
	}
	if dev.Label != "" {
		return dev.Label
	}
	return dev.ID
}

// Run starts the dashboard and blocks until the user quits.
func Run(startScreen Screen, device *discovery.Device, opts Options) error {
	p := tea.NewProgram(NewAppModel(startScreen, device, opts))
	_, err := p.Run()
	return err
}
