package sim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/lifxctl/internal/logging"
)

const (
	// Time allowed to write an event to a client
	writeWait = 10 * time.Second
)

// Event is one item of the monitor stream: a frame the simulator
// received or sent, together with the bulb state after handling it.
type Event struct {
	Time       time.Time `json:"time"`
	Direction  string    `json:"direction"` // "received" or "sent"
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Type       string    `json:"type"`
	Sequence   uint8     `json:"sequence"`
	Target     string    `json:"target,omitempty"`
	PayloadHex string    `json:"payload_hex,omitempty"`
	State      *State    `json:"state,omitempty"`
}

// Monitor streams simulator traffic to WebSocket clients. Clients
// connect to /ws and receive one JSON Event per observed frame; slow or
// dead clients are dropped rather than allowed to stall the stream.
type Monitor struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	server  *http.Server
}

// NewMonitor creates a monitor with no clients attached.
func NewMonitor() *Monitor {
	return &Monitor{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The monitor is a local debugging aid; any origin may watch
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Handler returns the monitor's HTTP handler: /ws upgrades to the event
// stream, / reports the client count.
func (m *Monitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWS)
	mux.HandleFunc("/", m.handleStatus)
	return mux
}

// Start serves the monitor on addr and blocks until Close is called.
func (m *Monitor) Start(addr string) error {
	m.mu.Lock()
	m.server = &http.Server{Addr: addr, Handler: m.Handler()}
	server := m.server
	m.mu.Unlock()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts the HTTP server down and disconnects every client.
func (m *Monitor) Close(ctx context.Context) error {
	m.mu.Lock()
	server := m.server
	for conn := range m.clients {
		_ = conn.Close()
	}
	m.clients = make(map[*websocket.Conn]bool)
	m.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// ClientCount returns the number of connected monitor clients.
func (m *Monitor) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Broadcast sends one event to every connected client. Clients whose
// write fails are disconnected.
func (m *Monitor) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Error("Failed to marshal monitor event", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for conn := range m.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logging.Debug("Dropping monitor client",
				zap.String("remote_addr", conn.RemoteAddr().String()),
				zap.Error(err))
			_ = conn.Close()
			delete(m.clients, conn)
		}
	}
}

// handleWS upgrades the connection and registers it for the event
// stream.
func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		return
	}

	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()

	logging.Info("Monitor client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()))

	// Read pump: the stream is one-way, but reading is what surfaces
	// close frames and connection loss
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		m.mu.Lock()
		_, present := m.clients[conn]
		delete(m.clients, conn)
		m.mu.Unlock()

		_ = conn.Close()
		if present {
			logging.Info("Monitor client disconnected",
				zap.String("remote_addr", conn.RemoteAddr().String()))
		}
	}()
}

// handleStatus reports the monitor state as JSON.
func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"clients": m.ClientCount(),
	})
}
