package protocol

import "fmt"

// MessageType is the 16-bit opcode carried in the message header. Device
// messages (replies and unsolicited state) use the State* values; client
// messages use Get*/Set*.
type MessageType uint16

// Device service messages.
const (
	TypeGetService   MessageType = 2
	TypeStateService MessageType = 3

	TypeGetPower   MessageType = 20
	TypeSetPower   MessageType = 21
	TypeStatePower MessageType = 22

	TypeGetLabel   MessageType = 23
	TypeSetLabel   MessageType = 24
	TypeStateLabel MessageType = 25

	TypeAcknowledgement MessageType = 45

	TypeEchoRequest  MessageType = 58
	TypeEchoResponse MessageType = 59
)

// Light-specific messages.
const (
	TypeLightGet        MessageType = 101
	TypeLightSetColor   MessageType = 102
	TypeLightState      MessageType = 107
	TypeLightGetPower   MessageType = 116
	TypeLightSetPower   MessageType = 117
	TypeLightStatePower MessageType = 118
)

// ServiceUDP is the service identifier devices report in StateService.
const ServiceUDP = 1

// String returns a human-readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case TypeGetService:
		return "GetService"
	case TypeStateService:
		return "StateService"
	case TypeGetPower:
		return "GetPower"
	case TypeSetPower:
		return "SetPower"
	case TypeStatePower:
		return "StatePower"
	case TypeGetLabel:
		return "GetLabel"
	case TypeSetLabel:
		return "SetLabel"
	case TypeStateLabel:
		return "StateLabel"
	case TypeAcknowledgement:
		return "Acknowledgement"
	case TypeEchoRequest:
		return "EchoRequest"
	case TypeEchoResponse:
		return "EchoResponse"
	case TypeLightGet:
		return "LightGet"
	case TypeLightSetColor:
		return "LightSetColor"
	case TypeLightState:
		return "LightState"
	case TypeLightGetPower:
		return "LightGetPower"
	case TypeLightSetPower:
		return "LightSetPower"
	case TypeLightStatePower:
		return "LightStatePower"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}
