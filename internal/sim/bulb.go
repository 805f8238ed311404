package sim

import (
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/lifxctl/internal/logging"
	"github.com/muurk/lifxctl/internal/protocol"
)

// State is a point-in-time snapshot of the simulated bulb.
type State struct {
	Power uint16        `json:"power"`
	Color protocol.HSBK `json:"color"`
	Label string        `json:"label"`
}

// Bulb holds the mutable state of one simulated light and knows how to
// answer protocol frames the way real hardware does: queries always get
// their State reply, mutations answer only when the response flag asks
// for one, and any frame with the ack flag gets an Acknowledgement
// first. Fade durations are accepted but applied instantly.
type Bulb struct {
	target uint64

	mu    sync.Mutex
	power uint16
	color protocol.HSBK
	label string
}

// NewBulb creates a simulated bulb with the given identity. It starts
// powered off in a neutral warm white.
func NewBulb(target uint64, label string) *Bulb {
	return &Bulb{
		target: target,
		power:  protocol.PowerOff,
		color:  protocol.HSBK{Saturation: 0, Brightness: 0xFFFF, Kelvin: 3500},
		label:  label,
	}
}

// Target returns the bulb's hardware identity.
func (b *Bulb) Target() uint64 {
	return b.target
}

// Snapshot returns a copy of the current bulb state.
func (b *Bulb) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{Power: b.power, Color: b.color, Label: b.label}
}

// addressedBy reports whether a frame is meant for this bulb: tagged
// frames and broadcast targets address everyone, otherwise the target
// must match.
func (b *Bulb) addressedBy(frame *protocol.Frame) bool {
	return frame.Tagged || frame.Target == protocol.TargetBroadcast || frame.Target == b.target
}

// HandleFrame processes one decoded frame and returns the wire replies
// it produces, in send order. servicePort is the UDP port advertised in
// discovery replies. Frames addressed to another device yield nothing.
func (b *Bulb) HandleFrame(frame *protocol.Frame, servicePort uint32) [][]byte {
	if !b.addressedBy(frame) {
		return nil
	}

	var replies [][]byte
	if frame.AckRequired {
		replies = b.appendReply(replies, frame, protocol.TypeAcknowledgement, nil)
	}

	switch frame.Type {
	case protocol.TypeGetService:
		replies = b.appendReply(replies, frame, protocol.TypeStateService,
			protocol.BuildStateService(protocol.ServiceUDP, servicePort))

	case protocol.TypeGetPower:
		replies = b.appendReply(replies, frame, protocol.TypeStatePower,
			protocol.BuildSetPower(b.Snapshot().Power))

	case protocol.TypeSetPower:
		level, err := protocol.ParseStatePower(frame.Payload)
		if err != nil {
			b.dropFrame(frame, err)
			return replies
		}
		b.setPower(level)
		if frame.ResRequired {
			replies = b.appendReply(replies, frame, protocol.TypeStatePower,
				protocol.BuildSetPower(level))
		}

	case protocol.TypeGetLabel:
		replies = b.appendReply(replies, frame, protocol.TypeStateLabel,
			protocol.BuildSetLabel(b.Snapshot().Label))

	case protocol.TypeSetLabel:
		label, err := protocol.ParseStateLabel(frame.Payload)
		if err != nil {
			b.dropFrame(frame, err)
			return replies
		}
		b.setLabel(label)
		if frame.ResRequired {
			replies = b.appendReply(replies, frame, protocol.TypeStateLabel,
				protocol.BuildSetLabel(label))
		}

	case protocol.TypeEchoRequest:
		replies = b.appendReply(replies, frame, protocol.TypeEchoResponse,
			protocol.BuildEchoRequest(frame.Payload))

	case protocol.TypeLightGet:
		st := b.Snapshot()
		replies = b.appendReply(replies, frame, protocol.TypeLightState,
			protocol.BuildLightState(&protocol.LightState{
				Color: st.Color,
				Power: st.Power,
				Label: st.Label,
			}))

	case protocol.TypeLightSetColor:
		color, _, err := protocol.ParseSetColor(frame.Payload)
		if err != nil {
			b.dropFrame(frame, err)
			return replies
		}
		b.setColor(color)
		if frame.ResRequired {
			st := b.Snapshot()
			replies = b.appendReply(replies, frame, protocol.TypeLightState,
				protocol.BuildLightState(&protocol.LightState{
					Color: st.Color,
					Power: st.Power,
					Label: st.Label,
				}))
		}

	case protocol.TypeLightGetPower:
		replies = b.appendReply(replies, frame, protocol.TypeLightStatePower,
			protocol.BuildSetPower(b.Snapshot().Power))

	case protocol.TypeLightSetPower:
		level, _, err := protocol.ParseLightSetPower(frame.Payload)
		if err != nil {
			b.dropFrame(frame, err)
			return replies
		}
		b.setPower(level)
		if frame.ResRequired {
			replies = b.appendReply(replies, frame, protocol.TypeLightStatePower,
				protocol.BuildSetPower(level))
		}

	default:
		logging.Debug("Ignoring unhandled message type",
			zap.String("type", frame.Type.String()),
			zap.Uint8("sequence", frame.Sequence))
	}

	return replies
}

// appendReply encodes one reply frame echoing the request's source and
// sequence, carrying the bulb's identity in the target field.
func (b *Bulb) appendReply(replies [][]byte, frame *protocol.Frame, t protocol.MessageType, payload []byte) [][]byte {
	out, err := protocol.Encode(frame.Source, frame.Sequence, t, payload,
		protocol.EncodeOptions{Target: b.target})
	if err != nil {
		// Reply payloads are all fixed and small; this cannot oversize
		logging.Warn("Failed to encode reply", zap.Error(err))
		return replies
	}
	return append(replies, out)
}

func (b *Bulb) dropFrame(frame *protocol.Frame, err error) {
	logging.Debug("Dropping malformed payload",
		zap.String("type", frame.Type.String()),
		zap.Uint8("sequence", frame.Sequence),
		zap.Error(err))
}

func (b *Bulb) setPower(level uint16) {
	b.mu.Lock()
	b.power = level
	b.mu.Unlock()
}

func (b *Bulb) setColor(c protocol.HSBK) {
	b.mu.Lock()
	b.color = c
	b.mu.Unlock()
}

func (b *Bulb) setLabel(label string) {
	b.mu.Lock()
	b.label = label
	b.mu.Unlock()
}
