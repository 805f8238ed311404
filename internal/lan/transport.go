package lan

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/muurk/lifxctl/internal/logging"
)

// MinSendInterval is the minimum spacing between any two datagrams sent
// by this process. Devices drop or misbehave under bursts, so the limit
// is global: every client in the process shares one budget rather than
// each getting its own.
const MinSendInterval = 50 * time.Millisecond

// sendLimiter is the process-wide throttle. Burst 1 means the first send
// goes out immediately and each subsequent send waits out the interval.
var sendLimiter = rate.NewLimiter(rate.Every(MinSendInterval), 1)

// Transport serializes outgoing datagrams through the global send
// throttle. Calls queue in arrival order and are delayed, never dropped.
type Transport struct {
	limiter *rate.Limiter
}

// NewTransport returns a transport on the shared process-wide limiter.
func NewTransport() *Transport {
	return &Transport{limiter: sendLimiter}
}

// newTransportWithLimiter is used by tests that need an isolated budget.
func newTransportWithLimiter(l *rate.Limiter) *Transport {
	return &Transport{limiter: l}
}

// Send writes one frame to addr after waiting for the throttle. A write
// failure comes back as a TransportError; the transport never retries.
func (t *Transport) Send(ctx context.Context, conn *net.UDPConn, frame []byte, addr *net.UDPAddr) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := conn.WriteToUDP(frame, addr); err != nil {
		logging.Warn("UDP send failed",
			zap.String("remote_addr", addr.String()),
			zap.Int("length", len(frame)),
			zap.Error(err),
		)
		return &TransportError{Err: err}
	}

	logging.LogDatagram("sent", addr.String(), frame)
	return nil
}
