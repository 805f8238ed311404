package protocol

// Wire-level constants for the LAN lighting protocol.
//
// Every message is a single UDP datagram with a fixed 36-byte header
// followed by an opcode-specific payload. All multi-byte integers are
// big-endian. The header is made of three sections:
//
//	Frame Header   (8 bytes)  - size, flags, protocol number, source nonce
//	Address Block  (16 bytes) - target device, ack/res flags, sequence
//	Message Header (12 bytes) - message type
const (
	// DefaultPort is the UDP port devices listen on.
	DefaultPort = 56700

	// ProtocolNumber identifies the protocol family. It occupies the low
	// nibble of header byte 2 and all of byte 3.
	ProtocolNumber = 1024

	// HeaderSize is the fixed length of the three header sections.
	HeaderSize = frameHeaderSize + addressBlockSize + messageHeaderSize

	// MaxFrameSize is the largest encodable message. The size field is a
	// uint16, so header plus payload can never exceed it.
	MaxFrameSize = 65535

	frameHeaderSize   = 8
	addressBlockSize  = 16
	messageHeaderSize = 12
)

// Byte offsets within an encoded frame.
const (
	offSize     = 0  // uint16: total message length
	offProto    = 2  // flags nibble + 12-bit protocol number
	offSource   = 4  // 4-byte client nonce, copied verbatim
	offTarget   = 8  // uint64: device target, zero for broadcast
	offFlags    = 22 // ack_required / res_required bits
	offSequence = 23 // uint8: wrapping sequence counter
	offType     = 32 // uint16: message type
)

// Bit masks for header byte 2 (origin, tagged, addressable, protocol
// high nibble) and for the address block flags byte.
const (
	maskOrigin      = 0xC0
	maskTagged      = 0x20
	maskAddressable = 0x10
	maskProtoHigh   = 0x0F

	maskAckRequired = 0x02
	maskResRequired = 0x01
)

// TargetBroadcast addresses every device on the segment. Devices also
// require the tagged bit for frames they should process regardless of
// target; Encode callers set both for discovery-style messages.
const TargetBroadcast uint64 = 0
