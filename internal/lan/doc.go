// Package lan exchanges protocol frames with lighting devices over UDP.
//
// A Client owns one socket and a fixed random nonce. Every operation is
// a single cycle: encode the frame, send it through the process-wide
// throttle, then collect all inbound datagrams for a bounded window and
// return them in arrival order.
//
// # Correlation Model
//
// Windows capture everything. The client does not match replies to
// requests by sequence number or source nonce; a window returns every
// datagram the socket received while it was open, including traffic
// meant for other windows or other programs. Concurrent operations on
// one client each observe the full stream. Callers that need precise
// matching decode the datagrams and filter on Frame.Source or
// Frame.Sequence themselves.
//
// An expired window is a successful result. Discover on a silent
// network returns an empty slice after the window elapses, not an
// error.
//
// # Shared State
//
// Two things are deliberately process-wide rather than per-client: the
// sequence counter (so concurrent clients never stamp the same value at
// once) and the send throttle (one datagram per 50ms across the whole
// process, sends queued in order and delayed, never dropped). A second
// client does not buy a second send budget.
//
// # Failure Model
//
//   - Invalid arguments fail synchronously with ValidationError.
//   - Oversized frames fail during encoding, before any send.
//   - Socket write failures reject the operation with TransportError;
//     nothing is retried and the window never opens.
//   - Asynchronous socket failures, including Close, surface on the
//     Faults channel. Closing is never a clean shutdown.
//
// # Usage
//
//	client, err := lan.CreateBroadcast(lan.Options{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	replies, err := client.Discover(ctx, 2*time.Second, protocol.DefaultPort)
//	if err != nil {
//	    return err
//	}
//	for _, d := range replies {
//	    f, err := protocol.Decode(d.Data)
//	    ...
//	}
package lan
