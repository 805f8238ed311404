// Package sim implements a simulated bulb that speaks the LAN protocol
// over UDP. It answers discovery probes, query and set messages,
// acknowledgements, and echo requests exactly the way a real device
// does, which makes it the test target for the client stack and a
// development aid when no hardware is on the network.
//
// # Behavior
//
// The simulated bulb keeps power, color, and label state. Query
// messages always produce the matching state reply. Set messages apply
// the change, then reply with an acknowledgement if one was requested
// and a state message if a response was requested. Frames addressed to
// a different device are dropped. Fade durations are accepted on the
// wire but applied instantly; the simulator models protocol behavior,
// not light output.
//
// # Usage
//
//	server, err := sim.New(&sim.Config{Port: 56700})
//	if err != nil {
//	    return err
//	}
//	if err := server.Start(); err != nil {
//	    return err
//	}
//	defer server.Shutdown(context.Background())
//
// Run combines Start with signal handling and blocks until SIGINT or
// SIGTERM, which is what the command-line entry point wants. Tests use
// Start and Shutdown directly, with Port 0 to bind an ephemeral port
// and Addr to find it.
//
// # Monitoring
//
// With Config.MonitorAddr set, the server additionally exposes a
// WebSocket endpoint at /ws that streams one JSON event per frame
// handled, including the bulb state after the frame was applied. With
// Config.CaptureDir set, the same traffic is appended to a JSONL
// capture file for offline inspection.
package sim
