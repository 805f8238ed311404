package protocol

import (
	"encoding/binary"
	"fmt"
)

// OversizeError reports a frame that would not fit in a single datagram.
// Encoding fails with it before anything touches the network.
type OversizeError struct {
	Size int // total encoded length that was attempted
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds the %d-byte datagram limit", e.Size, MaxFrameSize)
}

// EncodeOptions select the header flag bits and addressing of a frame.
// The zero value is a plain untagged unicast-capable frame with no
// acknowledgement or response requested.
type EncodeOptions struct {
	// Tagged marks the frame for processing by every device that sees
	// it, regardless of target. Set together with a zero Target for
	// discovery-style broadcasts.
	Tagged bool

	// AckRequired asks the device to send an Acknowledgement message.
	AckRequired bool

	// ResRequired asks the device to send its State* response message.
	ResRequired bool

	// Target is the 8-byte device identifier. TargetBroadcast (zero)
	// addresses all devices.
	Target uint64
}

// Encode builds a complete wire frame for one message.
//
// Header layout (36 bytes, all integers big-endian):
//
//	[0-1]   size          total message length including this header
//	[2]     bits 7-6      origin, always 0
//	        bit 5         tagged
//	        bit 4         addressable, always 1
//	        bits 3-0      protocol number, high nibble
//	[3]     protocol number, low byte (protocol = 1024)
//	[4-7]   source        the client nonce, copied verbatim
//	[8-15]  target        device identifier, zero for broadcast
//	[16-21] reserved      zero
//	[22]    bit 1         ack_required
//	        bit 0         res_required
//	[23]    sequence      wrapping message counter
//	[24-31] reserved      zero
//	[32-33] message type
//	[34-35] reserved      zero
//	[36+]   payload
//
// The payload is copied, never aliased, so the returned slice is
// immutable with respect to the caller's buffer. Apart from the sequence
// byte the output is fully determined by the arguments.
//
// Returns an OversizeError when header plus payload would exceed
// MaxFrameSize; nothing is allocated in that case.
func Encode(source Nonce, sequence uint8, msgType MessageType, payload []byte, opts EncodeOptions) ([]byte, error) {
	total := HeaderSize + len(payload)
	if total > MaxFrameSize {
		return nil, &OversizeError{Size: total}
	}

	frame := make([]byte, total)

	binary.BigEndian.PutUint16(frame[offSize:], uint16(total))

	flags := byte(maskAddressable | (ProtocolNumber >> 8 & maskProtoHigh))
	if opts.Tagged {
		flags |= maskTagged
	}
	frame[offProto] = flags
	frame[offProto+1] = byte(ProtocolNumber & 0xFF)

	copy(frame[offSource:offSource+4], source[:])

	binary.BigEndian.PutUint64(frame[offTarget:], opts.Target)

	if opts.AckRequired {
		frame[offFlags] |= maskAckRequired
	}
	if opts.ResRequired {
		frame[offFlags] |= maskResRequired
	}
	frame[offSequence] = sequence

	binary.BigEndian.PutUint16(frame[offType:], uint16(msgType))

	copy(frame[HeaderSize:], payload)

	return frame, nil
}
