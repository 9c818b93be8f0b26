// Package log provides structured diagnostic event logging for the
// per-device supervisor.
//
// This package defines the Logger interface and Event types for capturing
// task lifecycle events (connection state, classified errors, discovered
// artifacts, Readiness Signal transitions) for one device. It is separate
// from operational logging (slog): event capture provides a complete
// machine-readable trace per device for debugging and analysis.
//
// # Basic Usage
//
// A supervisor is configured with a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: append to the device's <udid>.log file
//	cfg.Logger, _ = log.NewFileLogger(filepath.Join(deviceDir, udid+".log"))
//
//	// Both: use MultiLogger
//	fileLogger, _ := log.NewFileLogger(logPath)
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files use CBOR encoding, one event per record, appended as events
// occur. cmd/imonitor-log provides viewing, filtering, and export
// capabilities over these files.
package log
