package sim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/lifxctl/internal/protocol"
)

// dialMonitor connects a WebSocket client to a monitor served through
// httptest and closes the connection with the test.
func dialMonitor(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial monitor: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// waitForClients polls until the monitor reports the expected client
// count. Registration and removal run in handler goroutines, so the
// count trails Dial and Close by a moment.
func waitForClients(t *testing.T, m *Monitor, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", m.ClientCount(), want)
}

func TestMonitor_StreamsEvents(t *testing.T) {
	m := NewMonitor()
	ts := httptest.NewServer(m.Handler())
	t.Cleanup(ts.Close)

	conn := dialMonitor(t, ts)
	waitForClients(t, m, 1)

	sent := Event{
		Time:       time.Now(),
		Direction:  "received",
		RemoteAddr: "127.0.0.1:40000",
		Type:       "SetPower",
		Sequence:   9,
		Target:     "d073d5c0ffee",
		PayloadHex: "ffff",
		State: &State{
			Power: protocol.PowerOn,
			Color: protocol.HSBK{Brightness: 0xFFFF, Kelvin: 3500},
			Label: "lamp",
		},
	}
	m.Broadcast(sent)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}

	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	if got.Direction != "received" || got.Type != "SetPower" || got.Sequence != 9 {
		t.Errorf("event = %+v, want direction/type/sequence preserved", got)
	}
	if got.Target != "d073d5c0ffee" {
		t.Errorf("target = %q, want d073d5c0ffee", got.Target)
	}
	if got.State == nil || got.State.Power != protocol.PowerOn || got.State.Label != "lamp" {
		t.Errorf("state = %+v, want power on with label", got.State)
	}
}

func TestMonitor_BroadcastReachesAllClients(t *testing.T) {
	m := NewMonitor()
	ts := httptest.NewServer(m.Handler())
	t.Cleanup(ts.Close)

	first := dialMonitor(t, ts)
	second := dialMonitor(t, ts)
	waitForClients(t, m, 2)

	m.Broadcast(Event{Direction: "sent", Type: "Acknowledgement"})

	for i, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d ReadMessage() error: %v", i, err)
		}
		var got Event
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("client %d unmarshal error: %v", i, err)
		}
		if got.Type != "Acknowledgement" {
			t.Errorf("client %d type = %q, want Acknowledgement", i, got.Type)
		}
	}
}

func TestMonitor_RemovesClosedClients(t *testing.T) {
	m := NewMonitor()
	ts := httptest.NewServer(m.Handler())
	t.Cleanup(ts.Close)

	conn := dialMonitor(t, ts)
	waitForClients(t, m, 1)

	_ = conn.Close()
	waitForClients(t, m, 0)

	// Broadcasting with no clients is a no-op, not a failure
	m.Broadcast(Event{Direction: "received", Type: "GetService"})
}

func TestMonitor_StatusEndpoint(t *testing.T) {
	m := NewMonitor()
	ts := httptest.NewServer(m.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var status struct {
		Clients int `json:"clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.Clients != 0 {
		t.Errorf("clients = %d, want 0", status.Clients)
	}

	missing, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope error: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status for unknown path = %d, want 404", missing.StatusCode)
	}
}

func TestMonitor_CloseDisconnectsClients(t *testing.T) {
	m := NewMonitor()
	ts := httptest.NewServer(m.Handler())
	t.Cleanup(ts.Close)

	conn := dialMonitor(t, ts)
	waitForClients(t, m, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if got := m.ClientCount(); got != 0 {
		t.Errorf("client count after close = %d, want 0", got)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read error after monitor close")
	}
}
