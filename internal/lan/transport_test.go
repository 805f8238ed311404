package lan

import (
	"context"
	"net"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func loopbackPair(t *testing.T) (*net.UDPConn, *net.UDPAddr) {
	t.Helper()

	sender, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sender.Close() })

	receiver, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { receiver.Close() })

	return sender, receiver.LocalAddr().(*net.UDPAddr)
}

func TestTransport_EnforcesMinimumSpacing(t *testing.T) {
	tr := newTransportWithLimiter(rate.NewLimiter(rate.Every(MinSendInterval), 1))
	sender, dest := loopbackPair(t)

	frame := []byte{0x01}
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := tr.Send(context.Background(), sender, frame, dest); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First send is immediate, the next two each wait the interval.
	if min := 2 * MinSendInterval; elapsed < min {
		t.Errorf("three sends took %v, want at least %v", elapsed, min)
	}
}

func TestTransport_DelaysRatherThanDrops(t *testing.T) {
	tr := newTransportWithLimiter(rate.NewLimiter(rate.Every(MinSendInterval), 1))
	sender, dest := loopbackPair(t)

	// Every rapid-fire send must eventually succeed; none may error or
	// be skipped.
	for i := 0; i < 5; i++ {
		if err := tr.Send(context.Background(), sender, []byte{byte(i)}, dest); err != nil {
			t.Fatalf("send %d dropped: %v", i, err)
		}
	}
}

func TestTransport_WrapsWriteFailures(t *testing.T) {
	tr := newTransportWithLimiter(rate.NewLimiter(rate.Every(time.Millisecond), 1))
	sender, dest := loopbackPair(t)

	sender.Close()
	err := tr.Send(context.Background(), sender, []byte{0x01}, dest)
	if !IsTransportError(err) {
		t.Errorf("Send() on closed socket error = %v, want TransportError", err)
	}
}

func TestTransport_ContextBoundsThrottleWait(t *testing.T) {
	tr := newTransportWithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1))
	sender, dest := loopbackPair(t)

	// Consume the single burst token.
	if err := tr.Send(context.Background(), sender, []byte{0x01}, dest); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tr.Send(ctx, sender, []byte{0x02}, dest)
	if err == nil {
		t.Fatal("Send() with exhausted budget and tight deadline: want error")
	}
	if IsTransportError(err) {
		t.Errorf("Send() error = %v, want throttle wait failure, not a transport error", err)
	}
}

func TestNewTransport_SharesProcessLimiter(t *testing.T) {
	a, b := NewTransport(), NewTransport()
	if a.limiter != b.limiter {
		t.Error("transports do not share the process-wide limiter")
	}
}
