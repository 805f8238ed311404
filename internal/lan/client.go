package lan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/lifxctl/internal/logging"
	"github.com/muurk/lifxctl/internal/protocol"
)

// DefaultWindow is the listen window applied when an operation is called
// with a non-positive timeout.
const DefaultWindow = 1000 * time.Millisecond

// faultBuffer bounds the fault channel. Events beyond it are dropped
// rather than blocking the receive loop.
const faultBuffer = 8

// Options configure a client.
type Options struct {
	// Port is the local port to bind, 0 for an ephemeral one. Must be
	// in [0, 65535]. Ignored when Conn is set.
	Port int

	// Conn, when non-nil, is an existing socket the client takes
	// ownership of. Create does not rebind it.
	Conn *net.UDPConn

	// BroadcastIP is the address Discover and target-less Send use.
	// Defaults to the limited broadcast address 255.255.255.255; hosts
	// with several interfaces may prefer a directed one like
	// 192.168.1.255.
	BroadcastIP net.IP

	// Sequence overrides the process-wide shared counter. Leave nil
	// outside of tests: sharing the counter is what keeps sequence
	// values unique across clients in one process.
	Sequence *protocol.Sequence
}

// Datagram is one raw UDP message captured during a listen window, in
// arrival order.
type Datagram struct {
	Data       []byte
	Addr       *net.UDPAddr
	ReceivedAt time.Time
}

// Request describes one outgoing message for Send.
type Request struct {
	Type    protocol.MessageType
	Payload []byte

	// Target selects the device in the frame header;
	// protocol.TargetBroadcast addresses all of them.
	Target uint64

	// AckRequired and ResRequired set the reply flags. Without either
	// the device stays silent and the listen window simply collects
	// whatever other traffic arrives.
	AckRequired bool
	ResRequired bool

	// Addr overrides the destination. When nil the frame is broadcast
	// to protocol.DefaultPort, with Target still selecting the device.
	Addr *net.UDPAddr
}

// capture accumulates datagrams for one listen window.
type capture struct {
	datagrams []Datagram
}

// Client exchanges protocol frames with devices over one UDP socket.
//
// Each client owns its socket and a fixed random nonce that marks its
// outgoing frames. The sequence counter and the send throttle are shared
// process-wide: two clients interleave sequence values and compete for
// the same send budget rather than getting independent ones.
//
// Listen windows capture all traffic. An operation does not filter
// inbound datagrams by sequence or source; whatever reaches the socket
// during the window is returned, and concurrent operations each see all
// of it. Callers correlate replies themselves, typically by decoding
// with protocol.Decode and checking Source against Nonce.
type Client struct {
	conn        *net.UDPConn
	nonce       protocol.Nonce
	seq         *protocol.Sequence
	transport   *Transport
	broadcastIP net.IP

	mu       sync.Mutex
	captures map[*capture]struct{}

	faults chan Fault
}

// Create builds a client, validating the port and binding a fresh
// socket unless Options.Conn supplies one.
func Create(opts Options) (*Client, error) {
	if err := validatePort(opts.Port); err != nil {
		return nil, err
	}

	conn := opts.Conn
	if conn == nil {
		var err error
		conn, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: opts.Port})
		if err != nil {
			return nil, fmt.Errorf("bind udp socket: %w", err)
		}
	}

	return newClient(conn, opts)
}

// CreateBroadcast builds a client whose socket has SO_BROADCAST set, as
// required for discovery on most platforms. The socket is always created
// here; supplying Options.Conn is invalid.
func CreateBroadcast(opts Options) (*Client, error) {
	if err := validatePort(opts.Port); err != nil {
		return nil, err
	}
	if opts.Conn != nil {
		return nil, &ValidationError{Field: "conn", Value: opts.Conn, Message: "broadcast sockets are created by the client"}
	}

	lc := net.ListenConfig{Control: broadcastControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		return nil, fmt.Errorf("bind broadcast socket: %w", err)
	}

	return newClient(pc.(*net.UDPConn), opts)
}

func newClient(conn *net.UDPConn, opts Options) (*Client, error) {
	nonce, err := protocol.NewNonce()
	if err != nil {
		conn.Close()
		return nil, err
	}

	seq := opts.Sequence
	if seq == nil {
		seq = protocol.DefaultSequence
	}
	broadcastIP := opts.BroadcastIP
	if broadcastIP == nil {
		broadcastIP = net.IPv4bcast
	}

	c := &Client{
		conn:        conn,
		nonce:       nonce,
		seq:         seq,
		transport:   NewTransport(),
		broadcastIP: broadcastIP,
		captures:    make(map[*capture]struct{}),
		faults:      make(chan Fault, faultBuffer),
	}

	logging.Info("LAN client ready",
		zap.String("local_addr", conn.LocalAddr().String()),
		zap.String("nonce", nonce.String()),
	)

	go c.readLoop()
	return c, nil
}

// Nonce returns the client's source nonce.
func (c *Client) Nonce() protocol.Nonce {
	return c.nonce
}

// LocalAddr returns the bound address of the client's socket.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Faults returns the channel carrying asynchronous socket failures.
// Events arrive whenever the receive loop dies, deliberate Close
// included, and are independent of any pending operation. The channel
// is buffered; events beyond the buffer are dropped.
func (c *Client) Faults() <-chan Fault {
	return c.faults
}

// Close releases the socket. The receive loop observes the closed
// socket and reports it on Faults: closing is a failure mode, not a
// clean shutdown, and any in-flight window stops receiving.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Discover broadcasts a discovery message to the given port and collects
// replies for the duration of the window.
//
// The discovery frame is tagged with the broadcast target so every
// device processes it, and requests both an acknowledgement and a
// response. A window with no replies resolves to an empty slice, not an
// error.
func (c *Client) Discover(ctx context.Context, timeout time.Duration, port int) ([]Datagram, error) {
	if err := validatePort(port); err != nil {
		return nil, err
	}

	frame, err := protocol.Encode(c.nonce, c.seq.Next(), protocol.TypeGetService, nil, protocol.EncodeOptions{
		Tagged:      true,
		AckRequired: true,
		ResRequired: true,
	})
	if err != nil {
		return nil, err
	}

	addr := &net.UDPAddr{IP: c.broadcastIP, Port: port}
	logging.Debug("Discovery broadcast",
		zap.String("remote_addr", addr.String()),
		zap.Duration("window", windowOrDefault(timeout)),
	)
	return c.exchange(ctx, timeout, frame, addr)
}

// Send encodes one request, transmits it through the global throttle and
// collects every datagram that arrives during the window.
//
// Encoding problems (an oversized payload) and transport failures reject
// the call immediately; an expired window is success, even when nothing
// was captured.
func (c *Client) Send(ctx context.Context, timeout time.Duration, req Request) ([]Datagram, error) {
	frame, err := protocol.Encode(c.nonce, c.seq.Next(), req.Type, req.Payload, protocol.EncodeOptions{
		AckRequired: req.AckRequired,
		ResRequired: req.ResRequired,
		Target:      req.Target,
	})
	if err != nil {
		return nil, err
	}

	addr := req.Addr
	if addr == nil {
		addr = &net.UDPAddr{IP: c.broadcastIP, Port: protocol.DefaultPort}
	}
	return c.exchange(ctx, timeout, frame, addr)
}

// exchange runs one send-then-listen cycle. The capture attaches before
// the write so a fast reply cannot slip through between the send
// completing and the window opening; on a failed send it detaches with
// nothing delivered.
func (c *Client) exchange(ctx context.Context, timeout time.Duration, frame []byte, addr *net.UDPAddr) ([]Datagram, error) {
	window := windowOrDefault(timeout)

	win := &capture{}
	c.mu.Lock()
	c.captures[win] = struct{}{}
	c.mu.Unlock()

	detach := func() []Datagram {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.captures, win)
		return win.datagrams
	}

	if err := c.transport.Send(ctx, c.conn, frame, addr); err != nil {
		detach()
		return nil, err
	}

	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case <-timer.C:
		got := detach()
		logging.Debug("Listen window closed",
			zap.String("remote_addr", addr.String()),
			zap.Int("captured", len(got)),
		)
		return got, nil
	case <-ctx.Done():
		detach()
		return nil, ctx.Err()
	}
}

// readLoop receives datagrams and fans them out to every active capture
// until the socket dies, then reports the failure on the fault channel.
func (c *Client) readLoop() {
	buf := make([]byte, protocol.MaxFrameSize+1)
	for {
		n, addr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			kind := FaultRead
			if errors.Is(err, net.ErrClosed) {
				kind = FaultClosed
			}
			c.emitFault(Fault{Kind: kind, Err: err, Time: time.Now()})
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		d := Datagram{Data: data, Addr: addr, ReceivedAt: time.Now()}

		logging.LogDatagram("received", addr.String(), data)

		c.mu.Lock()
		for win := range c.captures {
			win.datagrams = append(win.datagrams, d)
		}
		c.mu.Unlock()
	}
}

func (c *Client) emitFault(f Fault) {
	select {
	case c.faults <- f:
	default:
		logging.Warn("Fault event dropped, channel full", zap.String("fault", f.String()))
	}
}

func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return &ValidationError{Field: "port", Value: port, Message: "must be in range 0-65535"}
	}
	return nil
}

func windowOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultWindow
	}
	return timeout
}
