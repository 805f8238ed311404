// Package protocol implements the LAN lighting wire format.
//
// Devices are controlled over UDP with single-datagram binary messages:
// a fixed 36-byte header followed by an opcode-specific payload. All
// multi-byte integers on the wire are big-endian.
//
// # Frame Layout
//
// The header is three back-to-back sections:
//   - Frame Header (8 bytes): total size, flag bits, the 12-bit protocol
//     number 1024, and the 4-byte client nonce as the source field.
//   - Address Block (16 bytes): 8-byte device target (zero = broadcast),
//     the ack_required/res_required bits, and the sequence byte.
//   - Message Header (12 bytes): the 16-bit message type.
//
// # Identity
//
// Two values tie traffic to a client. The source nonce is 4 random bytes
// chosen once per client; devices echo it back, letting a client spot
// replies meant for it among broadcast traffic. The sequence byte comes
// from a process-wide wrapping counter shared by every client in the
// process, so two clients never reuse a sequence value at the same time.
//
// # Usage Example - Building
//
//	nonce, err := protocol.NewNonce()
//	if err != nil {
//	    return err
//	}
//	frame, err := protocol.Encode(nonce, protocol.NextSequence(),
//	    protocol.TypeSetPower, protocol.BuildSetPower(protocol.PowerOn),
//	    protocol.EncodeOptions{Target: target, AckRequired: true})
//
// # Usage Example - Parsing
//
//	f, err := protocol.Decode(datagram)
//	if err != nil {
//	    return err
//	}
//	if f.Type == protocol.TypeStateService {
//	    svc, err := protocol.ParseStateService(f.Payload)
//	    ...
//	}
//
// # Thread Safety
//
// Encoding and decoding are stateless and safe for concurrent use.
// Sequence counters use atomic operations.
package protocol
