package config

import (
	"time"

	"github.com/muurk/lifxctl/internal/protocol"
)

// Registry represents the entire user configuration file.
// It stores the cloud API token, user-defined metadata for known bulbs,
// and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	CloudToken  string             `yaml:"cloud_token,omitempty"` // LIFX HTTP API personal access token
	Devices     map[string]*Device `yaml:"devices,omitempty"`     // Keyed by device target ID (hex serial)
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined and last-observed metadata for a single bulb.
// It is keyed by the device's target identifier in the Registry.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	Label    string    `yaml:"label,omitempty"`     // Last label reported by the device itself
	LastIP   string    `yaml:"last_ip,omitempty"`   // Last known IP address
	LastPort int       `yaml:"last_port,omitempty"` // Last advertised UDP service port
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/response time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool    `yaml:"auto_discover"`            // Scan the LAN before commands that need a target
	DiscoverTimeout int     `yaml:"discover_timeout"`         // LAN discovery window in seconds
	Port            int     `yaml:"port"`                     // UDP port bulbs listen on
	BroadcastAddr   string  `yaml:"broadcast_addr,omitempty"` // Override for the discovery broadcast address
	DefaultDuration float64 `yaml:"default_duration"`         // Default fade duration in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 5,
			Port:            protocol.DefaultPort,
			DefaultDuration: 1.0,
		},
	}
}

// GetDevice retrieves device metadata by target identifier.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(target string) *Device {
	return r.Devices[target]
}

// EnsureDevice ensures a device entry exists in the registry.
// If the device doesn't exist, creates a new entry with default values.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(target string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[target]; exists {
		return device
	}

	device := &Device{}
	r.Devices[target] = device
	return device
}

// UpdateDeviceLastSeen updates the last seen timestamp, IP, and service
// port for a device.
func (r *Registry) UpdateDeviceLastSeen(target, ip string, port int) {
	device := r.EnsureDevice(target)
	device.LastSeen = time.Now()
	device.LastIP = ip
	device.LastPort = port
}

// RecordLabel stores the label most recently reported by the device itself.
func (r *Registry) RecordLabel(target, label string) {
	device := r.EnsureDevice(target)
	device.Label = label
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(target, nickname string) {
	device := r.EnsureDevice(target)
	device.Nickname = nickname
}

// DisplayName returns the friendliest available name for a device:
// the user's nickname if one is set, otherwise the device-reported
// label, otherwise the raw target identifier.
func (r *Registry) DisplayName(target string) string {
	device := r.GetDevice(target)
	if device == nil {
		return target
	}
	if device.Nickname != "" {
		return device.Nickname
	}
	if device.Label != "" {
		return device.Label
	}
	return target
}

// SetCloudToken stores the cloud API token in the registry.
func (r *Registry) SetCloudToken(token string) {
	r.CloudToken = token
}

// ClearCloudToken removes the stored cloud API token.
func (r *Registry) ClearCloudToken() {
	r.CloudToken = ""
}
