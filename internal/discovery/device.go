package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Source identifies which discovery mechanism produced a device record.
type Source int

const (
	// SourceLAN means the device answered a UDP broadcast probe.
	SourceLAN Source = iota

	// SourceMDNS means the device was seen advertising over mDNS.
	SourceMDNS
)

// String returns the lowercase name of the source.
func (s Source) String() string {
	switch s {
	case SourceLAN:
		return "lan"
	case SourceMDNS:
		return "mdns"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Device represents a discovered bulb on the network.
type Device struct {
	// ID is the hex hardware identifier (e.g., "d073d50a1b2c").
	// Empty when the advertisement carried no identifier.
	ID string

	// Target is the numeric form of ID used to address the device in
	// protocol frames. Zero when the ID is unknown.
	Target uint64

	// IP is the device address (e.g., "192.168.1.50")
	IP string

	// Port is the port of the service that was advertised: the UDP
	// control port for LAN-discovered devices, the advertised TCP port
	// for mDNS entries.
	Port int

	// Label is the device-reported name, when known
	Label string

	// Model is the hardware model from mDNS TXT records (e.g., "LIFX A19")
	Model string

	// Source records which mechanism found the device
	Source Source

	// Metadata contains additional mDNS TXT record data
	// Common fields: "id=D0:73:D5:0A:1B:2C", "md=LIFX A19"
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	name := d.ID
	if name == "" {
		name = "(unidentified)"
	}
	if d.Label != "" {
		return fmt.Sprintf("Device %s (%s) at %s:%d", name, d.Label, d.IP, d.Port)
	}
	return fmt.Sprintf("Device %s at %s:%d", name, d.IP, d.Port)
}

// Addr returns the UDP address to send control frames to. Only
// meaningful for LAN-discovered devices; returns nil when the IP
// cannot be parsed.
func (d *Device) Addr() *net.UDPAddr {
	ip := net.ParseIP(d.IP)
	if ip == nil {
		return nil
	}
	return &net.UDPAddr{IP: ip, Port: d.Port}
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// mergeKey is the identity devices are deduplicated on: the hardware
// ID when known, otherwise the network address.
func (d *Device) mergeKey() string {
	if d.ID != "" {
		return d.ID
	}
	return "addr:" + d.IP
}

// Merge combines device lists from multiple discovery mechanisms,
// deduplicating by hardware ID (falling back to IP for unidentified
// entries). When the same device appears in several lists, the
// LAN-sourced record wins since it carries the controllable UDP port;
// label, model, and metadata from the other records are folded in.
// First-seen order is preserved.
func Merge(lists ...[]*Device) []*Device {
	merged := make([]*Device, 0)
	byKey := make(map[string]*Device)

	for _, list := range lists {
		for _, dev := range list {
			key := dev.mergeKey()
			existing, seen := byKey[key]
			if !seen {
				byKey[key] = dev
				merged = append(merged, dev)
				continue
			}

			// Prefer the LAN record as the base entry
			if dev.Source == SourceLAN && existing.Source != SourceLAN {
				old := *existing
				*existing = *dev
				fold(existing, &old)
			} else {
				fold(existing, dev)
			}
		}
	}

	return merged
}

// fold copies naming and metadata fields from src into dst where dst
// has none.
func fold(dst, src *Device) {
	if dst.Label == "" {
		dst.Label = src.Label
	}
	if dst.Model == "" {
		dst.Model = src.Model
	}
	for k, v := range src.Metadata {
		if dst.Metadata == nil {
			dst.Metadata = make(map[string]string)
		}
		if _, ok := dst.Metadata[k]; !ok {
			dst.Metadata[k] = v
		}
	}
}

// FormatID renders a device target as the hex serial printed on the
// bulb itself. Hardware identifiers are 6 bytes; anything wider falls
// back to the full 8-byte form.
func FormatID(target uint64) string {
	if target < 1<<48 {
		return fmt.Sprintf("%012x", target)
	}
	return fmt.Sprintf("%016x", target)
}

// ParseID parses a device identifier in hex form, with or without
// colon separators ("d073d50a1b2c" or "D0:73:D5:0A:1B:2C").
func ParseID(s string) (uint64, error) {
	cleaned := strings.ReplaceAll(strings.ToLower(s), ":", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty device ID")
	}
	if len(cleaned) > 16 {
		return 0, fmt.Errorf("device ID %q is too long", s)
	}
	v, err := strconv.ParseUint(cleaned, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid device ID %q: %w", s, err)
	}
	return v, nil
}
