// Package config provides user configuration management for lifxctl.
//
// This package manages a YAML-based configuration file that stores the
// cloud API token, user-defined metadata for discovered bulbs (nicknames,
// last known addresses), and application preferences. The configuration
// follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/lifxctl/config.yaml or $HOME/.config/lifxctl/config.yaml
//   - macOS: $HOME/.config/lifxctl/config.yaml
//   - Windows: %LOCALAPPDATA%\lifxctl\config.yaml
//
// # Security
//
// The cloud API token IS stored in this file: it is what lets the CLI
// talk to the HTTP API without prompting on every run. The file and its
// directory are created with owner-only permissions (0600/0700). No other
// credentials are stored.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Record what discovery found and give the bulb a friendly name
//	registry.UpdateDeviceLastSeen("d073d50a1b2c", "192.168.1.100", 56700)
//	registry.SetDeviceNickname("d073d50a1b2c", "Desk Lamp")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
