package sim

import (
	"bytes"
	"testing"
	"time"

	"github.com/muurk/lifxctl/internal/protocol"
)

const bulbTarget = uint64(0xd073d5aabbcc)

// requestFrame encodes and decodes a request so tests exercise
// HandleFrame with exactly what the serve loop would hand it.
func requestFrame(t *testing.T, msgType protocol.MessageType, payload []byte, opts protocol.EncodeOptions) *protocol.Frame {
	t.Helper()

	data, err := protocol.Encode(protocol.Nonce{0xAA, 0xBB, 0xCC, 0xDD}, 7, msgType, payload, opts)
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}
	frame, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	return frame
}

func decodeReply(t *testing.T, data []byte) *protocol.Frame {
	t.Helper()

	frame, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("failed to decode reply: %v", err)
	}
	return frame
}

func TestNewBulb_Defaults(t *testing.T) {
	b := NewBulb(bulbTarget, "bench light")

	if b.Target() != bulbTarget {
		t.Errorf("Target() = %x, want %x", b.Target(), bulbTarget)
	}

	st := b.Snapshot()
	if st.Power != protocol.PowerOff {
		t.Errorf("Power = %d, want off", st.Power)
	}
	if st.Color.Brightness != 0xFFFF || st.Color.Kelvin != 3500 {
		t.Errorf("Color = %v, want full-brightness 3500K", st.Color)
	}
	if st.Label != "bench light" {
		t.Errorf("Label = %q, want %q", st.Label, "bench light")
	}
}

func TestBulbHandleFrame_Addressing(t *testing.T) {
	tests := []struct {
		name     string
		opts     protocol.EncodeOptions
		answered bool
	}{
		{"tagged reaches any device", protocol.EncodeOptions{Tagged: true, Target: 0x1111}, true},
		{"broadcast target", protocol.EncodeOptions{Target: protocol.TargetBroadcast}, true},
		{"exact target", protocol.EncodeOptions{Target: bulbTarget}, true},
		{"other device's target", protocol.EncodeOptions{Target: 0xd073d5ffffff}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBulb(bulbTarget, "lamp")
			frame := requestFrame(t, protocol.TypeGetService, nil, tt.opts)

			replies := b.HandleFrame(frame, protocol.DefaultPort)
			if got := len(replies) > 0; got != tt.answered {
				t.Errorf("answered = %v, want %v (%d replies)", got, tt.answered, len(replies))
			}
		})
	}
}

func TestBulbHandleFrame_GetService(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")
	frame := requestFrame(t, protocol.TypeGetService, nil,
		protocol.EncodeOptions{Tagged: true})

	replies := b.HandleFrame(frame, 56712)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}

	reply := decodeReply(t, replies[0])
	if reply.Type != protocol.TypeStateService {
		t.Fatalf("reply type = %v, want StateService", reply.Type)
	}
	if reply.Source != frame.Source {
		t.Errorf("reply source = %v, want %v", reply.Source, frame.Source)
	}
	if reply.Sequence != frame.Sequence {
		t.Errorf("reply sequence = %d, want %d", reply.Sequence, frame.Sequence)
	}
	if reply.Target != bulbTarget {
		t.Errorf("reply target = %x, want %x", reply.Target, bulbTarget)
	}
	if reply.Tagged {
		t.Error("reply should not be tagged")
	}

	svc, err := protocol.ParseStateService(reply.Payload)
	if err != nil {
		t.Fatalf("ParseStateService() error: %v", err)
	}
	if svc.Service != protocol.ServiceUDP {
		t.Errorf("service = %d, want UDP", svc.Service)
	}
	if svc.Port != 56712 {
		t.Errorf("port = %d, want 56712", svc.Port)
	}
}

func TestBulbHandleFrame_PowerCycle(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")
	opts := protocol.EncodeOptions{Target: bulbTarget}

	replies := b.HandleFrame(requestFrame(t, protocol.TypeGetPower, nil, opts), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	level, err := protocol.ParseStatePower(decodeReply(t, replies[0]).Payload)
	if err != nil {
		t.Fatalf("ParseStatePower() error: %v", err)
	}
	if level != protocol.PowerOff {
		t.Errorf("initial level = %d, want off", level)
	}

	// A bare set produces no reply but still changes state
	replies = b.HandleFrame(requestFrame(t, protocol.TypeSetPower,
		protocol.BuildSetPower(protocol.PowerOn), opts), 0)
	if len(replies) != 0 {
		t.Fatalf("got %d replies for flagless set, want 0", len(replies))
	}
	if b.Snapshot().Power != protocol.PowerOn {
		t.Errorf("power after set = %d, want on", b.Snapshot().Power)
	}

	replies = b.HandleFrame(requestFrame(t, protocol.TypeGetPower, nil, opts), 0)
	level, err = protocol.ParseStatePower(decodeReply(t, replies[0]).Payload)
	if err != nil {
		t.Fatalf("ParseStatePower() error: %v", err)
	}
	if level != protocol.PowerOn {
		t.Errorf("level after set = %d, want on", level)
	}
}

func TestBulbHandleFrame_AckAndResponseFlags(t *testing.T) {
	tests := []struct {
		name      string
		ack       bool
		res       bool
		wantTypes []protocol.MessageType
	}{
		{"no flags", false, false, nil},
		{"ack only", true, false, []protocol.MessageType{protocol.TypeAcknowledgement}},
		{"response only", false, true, []protocol.MessageType{protocol.TypeStatePower}},
		{"ack then response", true, true, []protocol.MessageType{
			protocol.TypeAcknowledgement, protocol.TypeStatePower}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBulb(bulbTarget, "lamp")
			frame := requestFrame(t, protocol.TypeSetPower,
				protocol.BuildSetPower(protocol.PowerOn),
				protocol.EncodeOptions{
					Target:      bulbTarget,
					AckRequired: tt.ack,
					ResRequired: tt.res,
				})

			replies := b.HandleFrame(frame, 0)
			if len(replies) != len(tt.wantTypes) {
				t.Fatalf("got %d replies, want %d", len(replies), len(tt.wantTypes))
			}
			for i, want := range tt.wantTypes {
				if got := decodeReply(t, replies[i]).Type; got != want {
					t.Errorf("reply %d type = %v, want %v", i, got, want)
				}
			}

			// State changes regardless of which replies were requested
			if b.Snapshot().Power != protocol.PowerOn {
				t.Errorf("power = %d, want on", b.Snapshot().Power)
			}
		})
	}
}

func TestBulbHandleFrame_SetColor(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")
	color := protocol.HSBK{Hue: 0x5555, Saturation: 0xFFFF, Brightness: 0x8000, Kelvin: 3500}

	replies := b.HandleFrame(requestFrame(t, protocol.TypeLightSetColor,
		protocol.BuildSetColor(color, 2*time.Second),
		protocol.EncodeOptions{Target: bulbTarget, ResRequired: true}), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}

	reply := decodeReply(t, replies[0])
	if reply.Type != protocol.TypeLightState {
		t.Fatalf("reply type = %v, want LightState", reply.Type)
	}
	st, err := protocol.ParseLightState(reply.Payload)
	if err != nil {
		t.Fatalf("ParseLightState() error: %v", err)
	}
	if st.Color != color {
		t.Errorf("reply color = %v, want %v", st.Color, color)
	}
	if st.Label != "lamp" {
		t.Errorf("reply label = %q, want %q", st.Label, "lamp")
	}

	// Fade duration is applied instantly
	if got := b.Snapshot().Color; got != color {
		t.Errorf("stored color = %v, want %v", got, color)
	}
}

func TestBulbHandleFrame_Label(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")
	opts := protocol.EncodeOptions{Target: bulbTarget}

	replies := b.HandleFrame(requestFrame(t, protocol.TypeSetLabel,
		protocol.BuildSetLabel("den lamp"),
		protocol.EncodeOptions{Target: bulbTarget, ResRequired: true}), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	label, err := protocol.ParseStateLabel(decodeReply(t, replies[0]).Payload)
	if err != nil {
		t.Fatalf("ParseStateLabel() error: %v", err)
	}
	if label != "den lamp" {
		t.Errorf("reply label = %q, want %q", label, "den lamp")
	}

	replies = b.HandleFrame(requestFrame(t, protocol.TypeGetLabel, nil, opts), 0)
	reply := decodeReply(t, replies[0])
	if reply.Type != protocol.TypeStateLabel {
		t.Fatalf("reply type = %v, want StateLabel", reply.Type)
	}
	label, err = protocol.ParseStateLabel(reply.Payload)
	if err != nil {
		t.Fatalf("ParseStateLabel() error: %v", err)
	}
	if label != "den lamp" {
		t.Errorf("queried label = %q, want %q", label, "den lamp")
	}
}

func TestBulbHandleFrame_Echo(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")
	payload := protocol.BuildEchoRequest([]byte("hello sim"))

	replies := b.HandleFrame(requestFrame(t, protocol.TypeEchoRequest, payload,
		protocol.EncodeOptions{Target: bulbTarget}), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}

	reply := decodeReply(t, replies[0])
	if reply.Type != protocol.TypeEchoResponse {
		t.Fatalf("reply type = %v, want EchoResponse", reply.Type)
	}
	if !bytes.Equal(reply.Payload, payload) {
		t.Errorf("echoed payload = %x, want %x", reply.Payload, payload)
	}
}

func TestBulbHandleFrame_LightGet(t *testing.T) {
	b := NewBulb(bulbTarget, "reading nook")
	b.setPower(protocol.PowerOn)
	b.setColor(protocol.HSBK{Hue: 100, Saturation: 200, Brightness: 300, Kelvin: 4000})

	replies := b.HandleFrame(requestFrame(t, protocol.TypeLightGet, nil,
		protocol.EncodeOptions{Target: bulbTarget}), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}

	st, err := protocol.ParseLightState(decodeReply(t, replies[0]).Payload)
	if err != nil {
		t.Fatalf("ParseLightState() error: %v", err)
	}
	if st.Power != protocol.PowerOn {
		t.Errorf("power = %d, want on", st.Power)
	}
	if st.Color.Kelvin != 4000 {
		t.Errorf("kelvin = %d, want 4000", st.Color.Kelvin)
	}
	if st.Label != "reading nook" {
		t.Errorf("label = %q, want %q", st.Label, "reading nook")
	}
}

func TestBulbHandleFrame_LightSetPower(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")

	replies := b.HandleFrame(requestFrame(t, protocol.TypeLightSetPower,
		protocol.BuildLightSetPower(protocol.PowerOn, 3*time.Second),
		protocol.EncodeOptions{Target: bulbTarget, ResRequired: true}), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}

	reply := decodeReply(t, replies[0])
	if reply.Type != protocol.TypeLightStatePower {
		t.Fatalf("reply type = %v, want LightStatePower", reply.Type)
	}
	level, err := protocol.ParseStatePower(reply.Payload)
	if err != nil {
		t.Fatalf("ParseStatePower() error: %v", err)
	}
	if level != protocol.PowerOn {
		t.Errorf("level = %d, want on", level)
	}

	// The transition duration does not defer the state change
	if b.Snapshot().Power != protocol.PowerOn {
		t.Errorf("power = %d, want on immediately", b.Snapshot().Power)
	}

	replies = b.HandleFrame(requestFrame(t, protocol.TypeLightGetPower, nil,
		protocol.EncodeOptions{Target: bulbTarget}), 0)
	if got := decodeReply(t, replies[0]).Type; got != protocol.TypeLightStatePower {
		t.Errorf("query reply type = %v, want LightStatePower", got)
	}
}

func TestBulbHandleFrame_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name    string
		msgType protocol.MessageType
		payload []byte
	}{
		{"short power level", protocol.TypeSetPower, []byte{0x01}},
		{"short color", protocol.TypeLightSetColor, make([]byte, 12)},
		{"short light power", protocol.TypeLightSetPower, make([]byte, 5)},
		{"short label", protocol.TypeSetLabel, []byte("truncated")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBulb(bulbTarget, "lamp")
			before := b.Snapshot()

			replies := b.HandleFrame(requestFrame(t, tt.msgType, tt.payload,
				protocol.EncodeOptions{Target: bulbTarget, ResRequired: true}), 0)
			if len(replies) != 0 {
				t.Errorf("got %d replies, want 0", len(replies))
			}
			if b.Snapshot() != before {
				t.Errorf("state changed by malformed payload: %+v", b.Snapshot())
			}
		})
	}
}

func TestBulbHandleFrame_MalformedPayloadStillAcked(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")

	replies := b.HandleFrame(requestFrame(t, protocol.TypeSetPower, []byte{0x01},
		protocol.EncodeOptions{Target: bulbTarget, AckRequired: true, ResRequired: true}), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want just the acknowledgement", len(replies))
	}
	if got := decodeReply(t, replies[0]).Type; got != protocol.TypeAcknowledgement {
		t.Errorf("reply type = %v, want Acknowledgement", got)
	}
}

func TestBulbHandleFrame_UnhandledType(t *testing.T) {
	b := NewBulb(bulbTarget, "lamp")

	// A reply type arriving as a request is ignored
	replies := b.HandleFrame(requestFrame(t, protocol.TypeStatePower,
		protocol.BuildSetPower(protocol.PowerOn),
		protocol.EncodeOptions{Target: bulbTarget}), 0)
	if len(replies) != 0 {
		t.Errorf("got %d replies, want 0", len(replies))
	}
	if b.Snapshot().Power != protocol.PowerOff {
		t.Error("unhandled type should not change state")
	}

	replies = b.HandleFrame(requestFrame(t, protocol.TypeStatePower,
		protocol.BuildSetPower(protocol.PowerOn),
		protocol.EncodeOptions{Target: bulbTarget, AckRequired: true}), 0)
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want just the acknowledgement", len(replies))
	}
	if got := decodeReply(t, replies[0]).Type; got != protocol.TypeAcknowledgement {
		t.Errorf("reply type = %v, want Acknowledgement", got)
	}
}
