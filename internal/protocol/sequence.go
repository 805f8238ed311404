package protocol

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
)

// Nonce is the 4-byte client identifier written into the source field of
// every outgoing frame. Devices copy it unchanged into their replies, so
// a client can recognize traffic addressed to it. A nonce is generated
// once per client and never changes for the client's lifetime.
type Nonce [4]byte

// NewNonce returns a fresh random nonce.
func NewNonce() (Nonce, error) {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return Nonce{}, fmt.Errorf("generate nonce: %w", err)
	}
	return n, nil
}

// String returns the nonce as lowercase hex.
func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}

// Sequence is a wrapping message counter. Next returns values that
// increment by one and roll over from 255 to 0 silently; the counter is
// never reset. Safe for concurrent use.
//
// All clients in a process share DefaultSequence unless constructed with
// their own instance, so sequence numbers interleave across clients.
type Sequence struct {
	n atomic.Uint32
}

// Next returns the next sequence value.
func (s *Sequence) Next() uint8 {
	return uint8(s.n.Add(1))
}

// DefaultSequence is the process-wide counter shared by all clients that
// do not supply their own.
var DefaultSequence = new(Sequence)

// NextSequence advances DefaultSequence.
func NextSequence() uint8 {
	return DefaultSequence.Next()
}
