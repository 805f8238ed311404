package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/muurk/lifxctl/internal/lan"
	"github.com/muurk/lifxctl/internal/protocol"
)

const testWindow = 300 * time.Millisecond

// startServer brings up a simulator on an ephemeral loopback port and
// tears it down with the test.
func startServer(t *testing.T, config *Config) *Server {
	t.Helper()

	if config == nil {
		config = &Config{}
	}
	config.Host = "127.0.0.1"
	config.LogLevel = "error"

	server, err := New(config)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})

	return server
}

func newSimClient(t *testing.T) *lan.Client {
	t.Helper()

	client, err := lan.Create(lan.Options{
		BroadcastIP: net.IPv4(127, 0, 0, 1),
		Sequence:    new(protocol.Sequence),
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// typesOf decodes captured datagrams and counts them by message type.
func typesOf(t *testing.T, datagrams []lan.Datagram) map[protocol.MessageType][]*protocol.Frame {
	t.Helper()

	byType := make(map[protocol.MessageType][]*protocol.Frame)
	for _, dg := range datagrams {
		frame, err := protocol.Decode(dg.Data)
		if err != nil {
			t.Fatalf("failed to decode captured datagram: %v", err)
		}
		byType[frame.Type] = append(byType[frame.Type], frame)
	}
	return byType
}

func TestNew_Defaults(t *testing.T) {
	server, err := New(&Config{LogLevel: "error"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := server.Bulb().Target(); got != 0xd073d5c0ffee {
		t.Errorf("default target = %x, want d073d5c0ffee", got)
	}
	if got := server.Bulb().Snapshot().Label; got != "Simulated Bulb" {
		t.Errorf("default label = %q, want %q", got, "Simulated Bulb")
	}
}

func TestNew_InvalidID(t *testing.T) {
	if _, err := New(&Config{ID: "not-a-mac", LogLevel: "error"}); err == nil {
		t.Fatal("expected error for malformed device ID")
	}
}

func TestServer_Discovery(t *testing.T) {
	server := startServer(t, &Config{ID: "d073d5010203", Label: "Corner Lamp"})
	client := newSimClient(t)

	ctx := context.Background()
	datagrams, err := client.Discover(ctx, testWindow, server.Addr().Port)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	byType := typesOf(t, datagrams)
	if len(byType[protocol.TypeAcknowledgement]) != 1 {
		t.Errorf("got %d acknowledgements, want 1", len(byType[protocol.TypeAcknowledgement]))
	}

	states := byType[protocol.TypeStateService]
	if len(states) != 1 {
		t.Fatalf("got %d StateService replies, want 1", len(states))
	}
	if states[0].Target != 0xd073d5010203 {
		t.Errorf("reply target = %x, want d073d5010203", states[0].Target)
	}

	svc, err := protocol.ParseStateService(states[0].Payload)
	if err != nil {
		t.Fatalf("ParseStateService() error: %v", err)
	}
	if svc.Service != protocol.ServiceUDP {
		t.Errorf("service = %d, want UDP", svc.Service)
	}
	if int(svc.Port) != server.Addr().Port {
		t.Errorf("advertised port = %d, want %d", svc.Port, server.Addr().Port)
	}
}

func TestServer_PowerControl(t *testing.T) {
	server := startServer(t, nil)
	client := newSimClient(t)
	ctx := context.Background()

	datagrams, err := client.Send(ctx, testWindow, lan.Request{
		Type:        protocol.TypeSetPower,
		Payload:     protocol.BuildSetPower(protocol.PowerOn),
		Target:      server.Bulb().Target(),
		AckRequired: true,
		ResRequired: true,
		Addr:        server.Addr(),
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	byType := typesOf(t, datagrams)
	if len(byType[protocol.TypeAcknowledgement]) != 1 {
		t.Errorf("got %d acknowledgements, want 1", len(byType[protocol.TypeAcknowledgement]))
	}
	states := byType[protocol.TypeStatePower]
	if len(states) != 1 {
		t.Fatalf("got %d StatePower replies, want 1", len(states))
	}
	level, err := protocol.ParseStatePower(states[0].Payload)
	if err != nil {
		t.Fatalf("ParseStatePower() error: %v", err)
	}
	if level != protocol.PowerOn {
		t.Errorf("reply level = %d, want on", level)
	}

	if got := server.Bulb().Snapshot().Power; got != protocol.PowerOn {
		t.Errorf("bulb power = %d, want on", got)
	}
}

func TestServer_ColorAndLabel(t *testing.T) {
	server := startServer(t, &Config{Label: "Workbench"})
	client := newSimClient(t)
	ctx := context.Background()
	color := protocol.HSBK{Hue: 0x2000, Saturation: 0xFFFF, Brightness: 0xC000, Kelvin: 3500}

	datagrams, err := client.Send(ctx, testWindow, lan.Request{
		Type:        protocol.TypeLightSetColor,
		Payload:     protocol.BuildSetColor(color, time.Second),
		Target:      server.Bulb().Target(),
		ResRequired: true,
		Addr:        server.Addr(),
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	states := typesOf(t, datagrams)[protocol.TypeLightState]
	if len(states) != 1 {
		t.Fatalf("got %d LightState replies, want 1", len(states))
	}
	st, err := protocol.ParseLightState(states[0].Payload)
	if err != nil {
		t.Fatalf("ParseLightState() error: %v", err)
	}
	if st.Color != color {
		t.Errorf("reply color = %v, want %v", st.Color, color)
	}
	if st.Label != "Workbench" {
		t.Errorf("reply label = %q, want %q", st.Label, "Workbench")
	}

	datagrams, err = client.Send(ctx, testWindow, lan.Request{
		Type:        protocol.TypeSetLabel,
		Payload:     protocol.BuildSetLabel("Shelf"),
		Target:      server.Bulb().Target(),
		ResRequired: true,
		Addr:        server.Addr(),
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	labels := typesOf(t, datagrams)[protocol.TypeStateLabel]
	if len(labels) != 1 {
		t.Fatalf("got %d StateLabel replies, want 1", len(labels))
	}
	label, err := protocol.ParseStateLabel(labels[0].Payload)
	if err != nil {
		t.Fatalf("ParseStateLabel() error: %v", err)
	}
	if label != "Shelf" {
		t.Errorf("reply label = %q, want %q", label, "Shelf")
	}
	if got := server.Bulb().Snapshot().Label; got != "Shelf" {
		t.Errorf("bulb label = %q, want %q", got, "Shelf")
	}
}

func TestServer_Echo(t *testing.T) {
	server := startServer(t, nil)
	client := newSimClient(t)
	payload := protocol.BuildEchoRequest([]byte("are you there"))

	datagrams, err := client.Send(context.Background(), testWindow, lan.Request{
		Type:    protocol.TypeEchoRequest,
		Payload: payload,
		Target:  server.Bulb().Target(),
		Addr:    server.Addr(),
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	echoes := typesOf(t, datagrams)[protocol.TypeEchoResponse]
	if len(echoes) != 1 {
		t.Fatalf("got %d echo responses, want 1", len(echoes))
	}
	if !bytes.Equal(echoes[0].Payload, payload) {
		t.Errorf("echoed payload = %x, want %x", echoes[0].Payload, payload)
	}
}

func TestServer_IgnoresOtherTargets(t *testing.T) {
	server := startServer(t, &Config{ID: "d073d5010203"})
	client := newSimClient(t)

	datagrams, err := client.Send(context.Background(), testWindow, lan.Request{
		Type:        protocol.TypeGetPower,
		Target:      0xd073d5fefefe,
		ResRequired: true,
		Addr:        server.Addr(),
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if len(datagrams) != 0 {
		t.Errorf("got %d datagrams for another device's target, want 0", len(datagrams))
	}
}

func TestServer_SurvivesGarbage(t *testing.T) {
	server := startServer(t, nil)

	conn, err := net.DialUDP("udp4", nil, server.Addr())
	if err != nil {
		t.Fatalf("failed to dial simulator: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF}); err != nil {
		t.Fatalf("failed to write garbage: %v", err)
	}

	// The serve loop must still answer after an undecodable datagram
	client := newSimClient(t)
	datagrams, err := client.Send(context.Background(), testWindow, lan.Request{
		Type:    protocol.TypeEchoRequest,
		Payload: protocol.BuildEchoRequest([]byte("still alive")),
		Target:  server.Bulb().Target(),
		Addr:    server.Addr(),
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if len(typesOf(t, datagrams)[protocol.TypeEchoResponse]) != 1 {
		t.Error("simulator stopped answering after garbage datagram")
	}
}

func TestServer_CaptureFile(t *testing.T) {
	captureDir := t.TempDir()
	server := startServer(t, &Config{CaptureDir: captureDir})
	client := newSimClient(t)

	_, err := client.Send(context.Background(), testWindow, lan.Request{
		Type:    protocol.TypeEchoRequest,
		Payload: protocol.BuildEchoRequest([]byte("capture me")),
		Target:  server.Bulb().Target(),
		Addr:    server.Addr(),
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(captureDir, "capture-*.jsonl"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("capture files = %v (err %v), want exactly one", matches, err)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("failed to read capture file: %v", err)
	}

	var records []DatagramRecord
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var rec DatagramRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("malformed capture line %q: %v", line, err)
		}
		records = append(records, rec)
	}

	if len(records) < 2 {
		t.Fatalf("got %d capture records, want at least request and reply", len(records))
	}

	directions := make(map[string]int)
	sawEcho := false
	for _, rec := range records {
		directions[rec.Direction]++
		if rec.Type == "EchoRequest" {
			sawEcho = true
		}
		if rec.RawHex == "" {
			t.Errorf("record %s/%s has empty raw bytes", rec.Direction, rec.Type)
		}
	}
	if directions["received"] == 0 || directions["sent"] == 0 {
		t.Errorf("directions = %v, want both received and sent", directions)
	}
	if !sawEcho {
		t.Error("no EchoRequest record in capture file")
	}
}

func TestServer_ShutdownStopsServing(t *testing.T) {
	config := &Config{Host: "127.0.0.1", LogLevel: "error"}
	server, err := New(config)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	addr := server.Addr()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	client := newSimClient(t)
	datagrams, err := client.Send(context.Background(), 150*time.Millisecond, lan.Request{
		Type:    protocol.TypeEchoRequest,
		Payload: protocol.BuildEchoRequest([]byte("anyone home")),
		Target:  server.Bulb().Target(),
		Addr:    addr,
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if len(datagrams) != 0 {
		t.Errorf("got %d datagrams after shutdown, want 0", len(datagrams))
	}
}
