package sim

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/lifxctl/internal/discovery"
	"github.com/muurk/lifxctl/internal/logging"
	"github.com/muurk/lifxctl/internal/protocol"
)

// DefaultID is the hardware identity the simulator assumes when none is
// configured.
const DefaultID = "d073d5c0ffee"

// Config holds the simulator configuration
type Config struct {
	Host        string // Bind address (empty for all interfaces)
	Port        int    // UDP port to listen on (0 for an ephemeral port)
	ID          string // Hardware identity in hex form (empty uses DefaultID)
	Label       string // Initial device label
	MonitorAddr string // WebSocket monitor bind address (empty = disabled)
	CaptureDir  string // Directory to write datagram capture logs (empty = disabled)
	LogLevel    string
}

// Server hosts one simulated bulb on a UDP socket, with an optional
// WebSocket monitor that streams the traffic it sees.
type Server struct {
	config  *Config
	bulb    *Bulb
	conn    *net.UDPConn
	monitor *Monitor

	capMu       sync.Mutex
	captureFile string

	wg sync.WaitGroup
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	// Initialize logging
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	id := config.ID
	if id == "" {
		id = DefaultID
	}
	target, err := discovery.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid device ID: %w", err)
	}

	label := config.Label
	if label == "" {
		label = "Simulated Bulb"
	}

	s := &Server{
		config: config,
		bulb:   NewBulb(target, label),
	}

	if config.CaptureDir != "" {
		s.captureFile = filepath.Join(config.CaptureDir,
			fmt.Sprintf("capture-%s.jsonl", time.Now().Format("20060102-150405")))
	}

	return s, nil
}

// Bulb returns the simulated bulb for direct inspection.
func (s *Server) Bulb() *Bulb {
	return s.bulb
}

// Addr returns the bound UDP address, or nil before Start.
func (s *Server) Addr() *net.UDPAddr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Start binds the UDP socket and launches the serve loop and optional
// monitor. It returns once the simulator is accepting frames; use Run
// for the blocking signal-driven lifecycle.
func (s *Server) Start() error {
	addr := &net.UDPAddr{IP: net.ParseIP(s.config.Host), Port: s.config.Port}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket: %w", err)
	}
	s.conn = conn

	logging.Info("Simulated bulb listening",
		zap.String("addr", conn.LocalAddr().String()),
		zap.String("id", discovery.FormatID(s.bulb.Target())),
		zap.String("label", s.bulb.Snapshot().Label),
	)

	if s.config.MonitorAddr != "" {
		s.monitor = NewMonitor()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.monitor.Start(s.config.MonitorAddr); err != nil {
				logging.Error("Monitor stopped", zap.Error(err))
			}
		}()
		logging.Info("Monitor listening", zap.String("addr", s.config.MonitorAddr))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.serve()
	}()

	return nil
}

// Run starts the simulator and blocks until a shutdown signal arrives.
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logging.Info("Shutdown signal received, stopping simulator...")
	return s.Shutdown(context.Background())
}

// serve reads datagrams and feeds them through the bulb until the
// socket closes.
func (s *Server) serve() {
	port := uint32(s.Addr().Port)
	buf := make([]byte, protocol.MaxFrameSize+1)

	for {
		n, remote, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logging.Error("Read failed", zap.Error(err))
			}
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		logging.LogDatagram("received", remote.String(), data)

		frame, err := protocol.Decode(data)
		if err != nil {
			logging.Debug("Ignoring undecodable datagram",
				zap.String("from", remote.String()),
				zap.Error(err))
			continue
		}

		s.record("received", remote.String(), frame)
		s.broadcastEvent("received", remote.String(), frame)

		for _, reply := range s.bulb.HandleFrame(frame, port) {
			if _, err := s.conn.WriteToUDP(reply, remote); err != nil {
				logging.Error("Failed to send reply",
					zap.String("to", remote.String()),
					zap.Error(err))
				continue
			}
			logging.LogDatagram("sent", remote.String(), reply)

			if sent, err := protocol.Decode(reply); err == nil {
				s.record("sent", remote.String(), sent)
				s.broadcastEvent("sent", remote.String(), sent)
			}
		}
	}
}

// Shutdown gracefully shuts down the simulator
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down simulator...")

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			logging.Error("Error closing socket", zap.Error(err))
		}
	}

	if s.monitor != nil {
		if err := s.monitor.Close(ctx); err != nil {
			logging.Error("Error closing monitor", zap.Error(err))
		}
	}

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Simulator stopped")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	// Sync logger
	logging.Sync()

	return nil
}

// broadcastEvent forwards one frame to monitor clients, if any.
func (s *Server) broadcastEvent(direction, remoteAddr string, frame *protocol.Frame) {
	if s.monitor == nil {
		return
	}
	state := s.bulb.Snapshot()
	s.monitor.Broadcast(Event{
		Time:       time.Now(),
		Direction:  direction,
		RemoteAddr: remoteAddr,
		Type:       frame.Type.String(),
		Sequence:   frame.Sequence,
		Target:     discovery.FormatID(frame.Target),
		PayloadHex: hex.EncodeToString(frame.Payload),
		State:      &state,
	})
}

// DatagramRecord represents a captured datagram for offline analysis
type DatagramRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Direction  string    `json:"direction"`
	RemoteAddr string    `json:"remote_addr"`
	Type       string    `json:"type"`
	Sequence   uint8     `json:"sequence"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	PayloadHex string    `json:"payload_hex"`
	RawHex     string    `json:"raw_hex"`
}

// record appends a datagram to the capture file.
// If capturing is disabled, this function does nothing.
func (s *Server) record(direction, remoteAddr string, frame *protocol.Frame) {
	if s.captureFile == "" {
		return
	}

	rec := DatagramRecord{
		Timestamp:  time.Now(),
		Direction:  direction,
		RemoteAddr: remoteAddr,
		Type:       frame.Type.String(),
		Sequence:   frame.Sequence,
		Source:     frame.Source.String(),
		Target:     discovery.FormatID(frame.Target),
		PayloadHex: hex.EncodeToString(frame.Payload),
		RawHex:     hex.EncodeToString(frame.Raw),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		logging.Error("Failed to marshal capture record", zap.Error(err))
		return
	}

	s.capMu.Lock()
	defer s.capMu.Unlock()

	// Append to JSONL file (JSON Lines format - one JSON object per line)
	f, err := os.OpenFile(s.captureFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logging.Error("Failed to open capture file",
			zap.String("filename", s.captureFile),
			zap.Error(err))
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		logging.Error("Failed to write capture record",
			zap.String("filename", s.captureFile),
			zap.Error(err))
	}
}
