package transport

import (
	"context"
	"io"
)

// HeartbeatService establishes liveness sessions with one device.
type HeartbeatService interface {
	Connect(ctx context.Context) (HeartbeatSession, error)
}

// HeartbeatSession exchanges periodic liveness messages: the device sends
// a "marco" carrying a hint for the next interval, the supervisor replies
// "polo".
type HeartbeatSession interface {
	// RecvMarco blocks until the device sends its next liveness ping,
	// returning the interval (seconds) the device hinted it will wait
	// before the next one.
	RecvMarco(ctx context.Context) (intervalHint int64, err error)

	// SendPolo acknowledges the most recently received marco.
	SendPolo(ctx context.Context) error

	Close() error
}

// CrashService lists and retrieves crash artifacts from one device.
type CrashService interface {
	Connect(ctx context.Context) (CrashSession, error)
}

// CrashSession is a connected crash-report file service session.
type CrashSession interface {
	// List returns the names of entries under dir ("" for the root).
	List(ctx context.Context, dir string) ([]string, error)

	// Pull downloads the full contents of path.
	Pull(ctx context.Context, path string) ([]byte, error)

	// FileInfo reports metadata about path, used to distinguish a
	// directory from an ordinary file after a failed Pull.
	FileInfo(ctx context.Context, path string) (FileInfo, error)

	Close() error
}

// FileInfo describes a remote crash-service path.
type FileInfo struct {
	IsDir bool
}

// SyslogService streams the device's system log. Optional: the supervisor
// may run without it (see pkg/syslog).
type SyslogService interface {
	Connect(ctx context.Context) (SyslogSession, error)
}

// SyslogSession yields one system log line at a time.
type SyslogSession interface {
	Next(ctx context.Context) (line string, err error)
	Close() error
}

// OSTraceService starts structured OS-trace streaming sessions and serves
// archive requests for a device.
type OSTraceService interface {
	Connect(ctx context.Context) (OSTraceSession, error)
}

// OSTraceSession is a connected OS-trace relay session.
type OSTraceSession interface {
	// StartTrace begins a structured log stream.
	StartTrace(ctx context.Context) (TraceStream, error)

	// CreateArchive requests an archive covering the gap described by
	// sizeHintMB/ageHintDays/startEpoch and streams the resulting tar
	// blob into dest.
	CreateArchive(ctx context.Context, dest io.Writer, sizeHintMB, ageHintDays int, startEpoch int64) error

	Close() error
}

// TraceStream yields one decoded structured log record at a time.
type TraceStream interface {
	Next(ctx context.Context) (record any, err error)
	Close() error
}
