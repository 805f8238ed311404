// Package logging provides structured logging for the lifxctl tools.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the suite. It provides both general logging functions
// and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame decoding, throttle waits)
//   - Info: Normal operations (sends, received datagrams, discovery results)
//   - Warn: Non-fatal issues (unparseable datagrams, dropped fault events)
//   - Error: Fatal issues (socket failures, startup errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device replied",
//	    zap.String("remote_addr", "192.168.1.100"),
//	    zap.String("type", "StateService"),
//	    zap.Uint8("sequence", 17),
//	)
//
// # Specialized Logging
//
// Datagram Logging:
//
//	logging.LogDatagram("sent", remoteAddr, frame)
//	logging.LogDatagram("received", remoteAddr, frame)
//
// Raw Byte Logging (debug level, hex and ascii dumps):
//
//	logging.LogRawBytes("Undecodable datagram", data)
//
// # Configuration
//
// Logging is silent by default so command output stays clean. Set
// LIFXCTL_LOG_LEVEL or initialize explicitly at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
