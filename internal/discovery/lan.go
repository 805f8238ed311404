package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/lifxctl/internal/lan"
	"github.com/muurk/lifxctl/internal/logging"
	"github.com/muurk/lifxctl/internal/protocol"
)

// LANScanner discovers bulbs by broadcasting a service probe over UDP
// and collecting the replies. This is the primary discovery mechanism:
// unlike mDNS it works on every bulb, not just HomeKit-capable ones,
// and it yields the control port directly.
type LANScanner struct {
	// Client is the UDP client the probe is sent through
	Client *lan.Client

	// Window is how long to collect replies (0 uses the client default)
	Window time.Duration

	// Port is the destination port for the broadcast probe
	// (0 uses the standard control port)
	Port int
}

// NewLANScanner creates a scanner that probes through the given client.
func NewLANScanner(client *lan.Client) *LANScanner {
	return &LANScanner{Client: client}
}

// Scan broadcasts a service probe and returns one Device per distinct
// responder. Replies that are not service announcements, or that
// advertise a service other than UDP control, are ignored. A quiet
// network yields an empty slice, not an error.
func (s *LANScanner) Scan(ctx context.Context) ([]*Device, error) {
	port := s.Port
	if port == 0 {
		port = protocol.DefaultPort
	}

	datagrams, err := s.Client.Discover(ctx, s.Window, port)
	if err != nil {
		return nil, err
	}

	devices := make([]*Device, 0)
	seen := make(map[uint64]bool)

	for _, dg := range datagrams {
		frame, err := protocol.Decode(dg.Data)
		if err != nil {
			logging.Debug("Ignoring undecodable discovery reply",
				zap.String("from", dg.Addr.String()),
				zap.Error(err))
			continue
		}
		if frame.Type != protocol.TypeStateService {
			continue
		}

		svc, err := protocol.ParseStateService(frame.Payload)
		if err != nil {
			logging.Debug("Ignoring malformed service announcement",
				zap.String("from", dg.Addr.String()),
				zap.Error(err))
			continue
		}
		if svc.Service != protocol.ServiceUDP {
			continue
		}

		// Bulbs answer once per service they speak; collapse duplicates
		if seen[frame.Target] {
			continue
		}
		seen[frame.Target] = true

		devices = append(devices, &Device{
			ID:           FormatID(frame.Target),
			Target:       frame.Target,
			IP:           dg.Addr.IP.String(),
			Port:         int(svc.Port),
			Source:       SourceLAN,
			DiscoveredAt: dg.ReceivedAt,
		})
	}

	logging.Debug("LAN scan complete",
		zap.Int("replies", len(datagrams)),
		zap.Int("devices", len(devices)))

	return devices, nil
}

// ResolveLabels asks each LAN-discovered device for its label and fills
// in the Label field. Devices that don't answer within the window keep
// an empty label; only context cancellation aborts the pass.
func (s *LANScanner) ResolveLabels(ctx context.Context, devices []*Device) error {
	for _, dev := range devices {
		if dev.Source != SourceLAN {
			continue
		}
		addr := dev.Addr()
		if addr == nil {
			continue
		}

		replies, err := s.Client.Send(ctx, s.Window, lan.Request{
			Type:   protocol.TypeGetLabel,
			Target: dev.Target,
			Addr:   addr,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Debug("Label query failed",
				zap.String("device", dev.ID),
				zap.Error(err))
			continue
		}

		for _, dg := range replies {
			frame, err := protocol.Decode(dg.Data)
			if err != nil || frame.Type != protocol.TypeStateLabel {
				continue
			}
			if frame.Target != 0 && frame.Target != dev.Target {
				continue
			}
			label, err := protocol.ParseStateLabel(frame.Payload)
			if err != nil {
				continue
			}
			dev.Label = label
			break
		}
	}

	return nil
}
