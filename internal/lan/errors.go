package lan

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports invalid arguments to a client constructor or
// operation. It is returned synchronously, before any network activity.
type ValidationError struct {
	Field   string // argument that failed validation
	Value   any    // offending value
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

// TransportError wraps a socket write failure. It rejects the in-flight
// operation immediately; the listen window is never opened. The client
// does not retry.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport send failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FaultKind categorizes asynchronous socket faults.
type FaultKind int

const (
	// FaultClosed means the socket was closed. Closing is always treated
	// as a failure, not a clean shutdown: any consumer of the client
	// should consider it unusable afterwards.
	FaultClosed FaultKind = iota
	// FaultRead means a receive on the socket failed for another reason.
	FaultRead
)

// String returns a human-readable name for the fault kind.
func (k FaultKind) String() string {
	switch k {
	case FaultClosed:
		return "socket closed"
	case FaultRead:
		return "read error"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// Fault is an asynchronous socket failure delivered on Client.Faults.
// Faults are not tied to any pending operation; they fire whenever the
// receive loop dies, including a deliberate Close.
type Fault struct {
	Kind FaultKind
	Err  error
	Time time.Time
}

func (f Fault) String() string {
	return fmt.Sprintf("fault: %s: %v", f.Kind, f.Err)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransportError reports whether err is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
