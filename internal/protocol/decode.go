package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Decode validation errors. Decode wraps these with the offending values,
// so callers match them with errors.Is.
var (
	ErrFrameTooShort  = errors.New("frame shorter than header")
	ErrBadProtocol    = errors.New("wrong protocol number")
	ErrNotAddressable = errors.New("addressable bit not set")
	ErrSizeMismatch   = errors.New("size field disagrees with datagram length")
)

// Frame is a decoded wire message. Fields mirror the header layout
// documented on Encode; Payload and Raw alias the buffer passed to
// Decode.
type Frame struct {
	Size        uint16
	Tagged      bool
	Source      Nonce
	Target      uint64
	AckRequired bool
	ResRequired bool
	Sequence    uint8
	Type        MessageType
	Payload     []byte
	Raw         []byte
}

// Decode parses a datagram into a Frame.
//
// The datagram must be at least HeaderSize bytes, carry the expected
// protocol number with the addressable bit set, and declare a size that
// fits inside the datagram. Bytes beyond the declared size are ignored;
// reserved header fields are not checked.
func Decode(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}

	proto := uint16(data[offProto]&maskProtoHigh)<<8 | uint16(data[offProto+1])
	if proto != ProtocolNumber {
		return nil, fmt.Errorf("%w: got %d", ErrBadProtocol, proto)
	}
	if data[offProto]&maskAddressable == 0 {
		return nil, ErrNotAddressable
	}

	size := binary.BigEndian.Uint16(data[offSize:])
	if int(size) < HeaderSize || int(size) > len(data) {
		return nil, fmt.Errorf("%w: size %d, datagram %d", ErrSizeMismatch, size, len(data))
	}

	f := &Frame{
		Size:        size,
		Tagged:      data[offProto]&maskTagged != 0,
		Target:      binary.BigEndian.Uint64(data[offTarget:]),
		AckRequired: data[offFlags]&maskAckRequired != 0,
		ResRequired: data[offFlags]&maskResRequired != 0,
		Sequence:    data[offSequence],
		Type:        MessageType(binary.BigEndian.Uint16(data[offType:])),
		Payload:     data[HeaderSize:size],
		Raw:         data,
	}
	copy(f.Source[:], data[offSource:offSource+4])

	return f, nil
}

// String returns a debug representation of the frame header.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{type=%s, seq=%d, source=%s, target=%016x, tagged=%v, ack=%v, res=%v, payload=%d bytes}",
		f.Type, f.Sequence, f.Source, f.Target, f.Tagged, f.AckRequired, f.ResRequired, len(f.Payload))
}
