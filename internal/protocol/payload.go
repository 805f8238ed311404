package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Power levels for SetPower and LightSetPower. The protocol only
// distinguishes fully off from fully on; intermediate values are
// reserved.
const (
	PowerOff uint16 = 0
	PowerOn  uint16 = 0xFFFF
)

// LabelSize is the fixed width of the device label field. Longer labels
// are truncated on the wire.
const LabelSize = 32

// EchoSize is the fixed width of an EchoRequest/EchoResponse payload.
const EchoSize = 64

// HSBK is the color representation devices work in: hue, saturation and
// brightness scaled to the full uint16 range, plus color temperature in
// kelvin for whites.
type HSBK struct {
	Hue        uint16
	Saturation uint16
	Brightness uint16
	Kelvin     uint16
}

func (c HSBK) String() string {
	return fmt.Sprintf("HSBK{hue=%d, sat=%d, bri=%d, kelvin=%d}", c.Hue, c.Saturation, c.Brightness, c.Kelvin)
}

// StateService is the payload of a TypeStateService discovery reply.
type StateService struct {
	Service uint8  // transport identifier, ServiceUDP for this client
	Port    uint32 // port the device listens on
}

// LightState is the payload of a TypeLightState reply: the full visible
// state of a light.
type LightState struct {
	Color HSBK
	Power uint16
	Label string
}

func (s *LightState) String() string {
	return fmt.Sprintf("LightState{label=%q, power=%d, color=%s}", s.Label, s.Power, s.Color)
}

// BuildSetPower builds the 2-byte TypeSetPower payload.
//
//	[0-1]  level   PowerOn or PowerOff
func BuildSetPower(level uint16) []byte {
	p := make([]byte, 2)
	binary.BigEndian.PutUint16(p, level)
	return p
}

// BuildLightSetPower builds the 6-byte TypeLightSetPower payload. The
// device fades to the new level over the given duration, truncated to
// whole milliseconds in 32 bits.
//
//	[0-1]  level     PowerOn or PowerOff
//	[2-5]  duration  fade time in milliseconds
func BuildLightSetPower(level uint16, duration time.Duration) []byte {
	p := make([]byte, 6)
	binary.BigEndian.PutUint16(p, level)
	binary.BigEndian.PutUint32(p[2:], uint32(duration/time.Millisecond))
	return p
}

// BuildSetColor builds the 13-byte TypeLightSetColor payload.
//
//	[0]     reserved
//	[1-2]   hue
//	[3-4]   saturation
//	[5-6]   brightness
//	[7-8]   kelvin
//	[9-12]  duration  fade time in milliseconds
func BuildSetColor(c HSBK, duration time.Duration) []byte {
	p := make([]byte, 13)
	binary.BigEndian.PutUint16(p[1:], c.Hue)
	binary.BigEndian.PutUint16(p[3:], c.Saturation)
	binary.BigEndian.PutUint16(p[5:], c.Brightness)
	binary.BigEndian.PutUint16(p[7:], c.Kelvin)
	binary.BigEndian.PutUint32(p[9:], uint32(duration/time.Millisecond))
	return p
}

// BuildSetLabel builds the 32-byte TypeSetLabel payload. Labels longer
// than LabelSize bytes are truncated, shorter ones zero-padded.
func BuildSetLabel(label string) []byte {
	p := make([]byte, LabelSize)
	copy(p, label)
	return p
}

// BuildEchoRequest builds the 64-byte TypeEchoRequest payload. The
// device returns the bytes unchanged in a TypeEchoResponse. Input
// longer than EchoSize is truncated, shorter input zero-padded.
func BuildEchoRequest(data []byte) []byte {
	p := make([]byte, EchoSize)
	copy(p, data)
	return p
}

// BuildStateService builds the 5-byte TypeStateService payload devices
// answer discovery with.
//
//	[0]    service
//	[1-4]  port
func BuildStateService(service uint8, port uint32) []byte {
	p := make([]byte, 5)
	p[0] = service
	binary.BigEndian.PutUint32(p[1:], port)
	return p
}

// BuildLightState builds the 52-byte TypeLightState payload, the
// inverse of ParseLightState.
func BuildLightState(st *LightState) []byte {
	p := make([]byte, 52)
	binary.BigEndian.PutUint16(p[0:], st.Color.Hue)
	binary.BigEndian.PutUint16(p[2:], st.Color.Saturation)
	binary.BigEndian.PutUint16(p[4:], st.Color.Brightness)
	binary.BigEndian.PutUint16(p[6:], st.Color.Kelvin)
	binary.BigEndian.PutUint16(p[10:], st.Power)
	copy(p[12:44], st.Label)
	return p
}

// ParseStateService decodes a TypeStateService payload.
//
//	[0]    service
//	[1-4]  port
func ParseStateService(payload []byte) (*StateService, error) {
	if len(payload) < 5 {
		return nil, fmt.Errorf("state service payload too short: %d bytes (need 5)", len(payload))
	}
	return &StateService{
		Service: payload[0],
		Port:    binary.BigEndian.Uint32(payload[1:5]),
	}, nil
}

// ParseStatePower decodes a bare 2-byte level. TypeSetPower,
// TypeStatePower, and TypeLightStatePower all carry this layout.
func ParseStatePower(payload []byte) (uint16, error) {
	if len(payload) < 2 {
		return 0, fmt.Errorf("power payload too short: %d bytes (need 2)", len(payload))
	}
	return binary.BigEndian.Uint16(payload), nil
}

// ParseStateLabel decodes a zero-padded 32-byte label. TypeSetLabel and
// TypeStateLabel both carry this layout.
func ParseStateLabel(payload []byte) (string, error) {
	if len(payload) < LabelSize {
		return "", fmt.Errorf("label payload too short: %d bytes (need %d)", len(payload), LabelSize)
	}
	return trimLabel(payload[:LabelSize]), nil
}

// ParseSetColor decodes a TypeLightSetColor payload: the target color
// and the fade duration.
func ParseSetColor(payload []byte) (HSBK, time.Duration, error) {
	if len(payload) < 13 {
		return HSBK{}, 0, fmt.Errorf("set color payload too short: %d bytes (need 13)", len(payload))
	}
	c := HSBK{
		Hue:        binary.BigEndian.Uint16(payload[1:]),
		Saturation: binary.BigEndian.Uint16(payload[3:]),
		Brightness: binary.BigEndian.Uint16(payload[5:]),
		Kelvin:     binary.BigEndian.Uint16(payload[7:]),
	}
	duration := time.Duration(binary.BigEndian.Uint32(payload[9:])) * time.Millisecond
	return c, duration, nil
}

// ParseLightSetPower decodes a TypeLightSetPower payload: the target
// level and the fade duration.
func ParseLightSetPower(payload []byte) (uint16, time.Duration, error) {
	if len(payload) < 6 {
		return 0, 0, fmt.Errorf("light set power payload too short: %d bytes (need 6)", len(payload))
	}
	level := binary.BigEndian.Uint16(payload)
	duration := time.Duration(binary.BigEndian.Uint32(payload[2:])) * time.Millisecond
	return level, duration, nil
}

// ParseLightState decodes a TypeLightState payload.
//
//	[0-7]    color       HSBK, four uint16 fields
//	[8-9]    reserved
//	[10-11]  power
//	[12-43]  label       zero-padded
//	[44-51]  reserved
func ParseLightState(payload []byte) (*LightState, error) {
	if len(payload) < 52 {
		return nil, fmt.Errorf("light state payload too short: %d bytes (need 52)", len(payload))
	}
	return &LightState{
		Color: HSBK{
			Hue:        binary.BigEndian.Uint16(payload[0:]),
			Saturation: binary.BigEndian.Uint16(payload[2:]),
			Brightness: binary.BigEndian.Uint16(payload[4:]),
			Kelvin:     binary.BigEndian.Uint16(payload[6:]),
		},
		Power: binary.BigEndian.Uint16(payload[10:]),
		Label: trimLabel(payload[12:44]),
	}, nil
}

func trimLabel(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
