// Package tui implements the interactive terminal dashboard for lifxctl.
//
// This package provides a full-screen TUI for discovering bulbs on the local
// network and controlling them live. Built using the Bubble Tea framework, it
// follows the Elm architecture with immutable state updates and a clean
// Model-Update-View pattern.
//
// # Architecture
//
// The TUI is organized into two screens:
//   - Scan: Broadcast a discovery probe and list the bulbs that answered
//   - Control: Drive a single bulb (power, brightness, hue) with live state
//
// Both screens use a unified container pattern (RenderApplicationContainer)
// for consistent layout with header, content area, and context-sensitive
// footer.
//
// # Framework Components
//
// The TUI leverages Bubble Tea framework components throughout:
//   - bubbles/spinner: Loading indicators during scans and bulb reads
//   - bubbles/list: Bulb list with filtering and card-style entries
//   - bubbles/help: Context-aware help system
//   - lipgloss: Styling and layout
//
// # Usage Example
//
//	client, err := lan.CreateBroadcast()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := tui.Run(tui.ScreenScan, nil, tui.Options{Client: client}); err != nil {
//	    log.Fatal(err)
//	}
//
// Passing a *discovery.Device and ScreenControl starts the dashboard directly
// on that bulb, skipping the scan screen.
//
// # Screen Flow
//
//  1. Scan Screen:
//     - Broadcasts a discovery probe and collects answers for the capture window
//     - Displays found bulbs as cards with label, address, and hardware ID
//     - Nicknames from the local registry take precedence over bulb labels
//     - User selects a bulb to control; r triggers a rescan
//
//  2. Control Screen:
//     - Reads the bulb's current state on entry
//     - Shows power, a colored brightness bar, and the current color values
//     - Space toggles power, arrow keys adjust brightness and hue
//     - Changes apply with the configured fade duration, then state refreshes
//     - ESC returns to the scan screen with the previous results intact
//
// # Key Bindings
//
// Each screen has context-aware key bindings rendered in the footer:
//   - Scan: ↑/↓ navigate, Enter select, / filter, r rescan, q quit
//   - Control: Space toggle, ↑/↓ brightness, ←/→ hue, r refresh, ESC back, q quit
//
// Help text automatically updates based on screen state (e.g., while a scan
// is in flight only quit is offered).
//
// # Styling
//
// All styling uses lipgloss for consistency:
//   - Color palette: Amber highlights, green success, red errors
//   - Borders: Rounded borders for bulb cards, normal border for the container
//   - The brightness bar and color swatch are tinted with the bulb's actual
//     color, converted from HSBK to an approximate terminal RGB
//
// # State Management
//
// The TUI maintains immutable state with explicit updates:
//   - Models contain all state (no global variables)
//   - Update() returns new model + commands
//   - View() is pure function of model state
//   - Commands represent async operations (scans, bulb reads, set operations)
//
// All LAN traffic goes through the shared rate-limited client passed in
// Options, so dashboard keystrokes obey the same pacing as every other sender.
package tui
