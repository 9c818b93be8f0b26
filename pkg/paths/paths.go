// Package paths lays out the per-device on-disk directory structure under
// a supervisor's base directory, and creates it on demand.
package paths

import (
	"os"
	"path/filepath"
)

// Layout resolves the on-disk paths for a single device, rooted at
// baseDir/<udid>.
type Layout struct {
	root string
}

// NewLayout returns the Layout for the device identified by udid, rooted
// at baseDir.
func NewLayout(baseDir, udid string) Layout {
	return Layout{root: filepath.Join(baseDir, udid)}
}

// Root is baseDir/<udid>.
func (l Layout) Root() string { return l.root }

// Info holds device identity metadata.
func (l Layout) Info() string { return filepath.Join(l.root, "info") }

// Connection holds connection-state bookkeeping.
func (l Layout) Connection() string { return filepath.Join(l.root, "connection") }

// Heartbeat holds the last-established-connection timestamp.
func (l Layout) Heartbeat() string { return filepath.Join(l.root, "heartbeat") }

// HeartbeatLastEstablishedFile is the heartbeat supervisor's persisted
// last-established-connection timestamp.
func (l Layout) HeartbeatLastEstablishedFile() string {
	return filepath.Join(l.Heartbeat(), "heartbeat_last_established.json")
}

// Crashes holds the Known-Set's persisted crash file/dir sets.
func (l Layout) Crashes() string { return filepath.Join(l.root, "crashes") }

// CrashFiles holds downloaded crash report files.
func (l Layout) CrashFiles() string { return filepath.Join(l.root, "crashes", "files") }

// Syslog holds the captured syslog stream.
func (l Layout) Syslog() string { return filepath.Join(l.root, "syslog") }

// OSTrace is the parent of the log/archive/pid sub-directories.
func (l Layout) OSTrace() string { return filepath.Join(l.root, "os_trace") }

// OSTraceLog holds the append-only NDJSON trace stream.
func (l Layout) OSTraceLog() string { return filepath.Join(l.root, "os_trace", "log") }

// OSTraceArchive holds fetched sysdiagnose archives.
func (l Layout) OSTraceArchive() string { return filepath.Join(l.root, "os_trace", "archive") }

// OSTracePID holds the in-progress trace session's process-id bookkeeping.
func (l Layout) OSTracePID() string { return filepath.Join(l.root, "os_trace", "pid") }

// ActivityCoverage holds the persisted Coverage Set.
func (l Layout) ActivityCoverage() string { return filepath.Join(l.root, "activity_coverage") }

// ActivityCoverageFile is the Coverage Set's JSON snapshot file.
func (l Layout) ActivityCoverageFile() string {
	return filepath.Join(l.ActivityCoverage(), "activity_coverage.json")
}

// KnownSetFilesFile is the Known-Set's persisted files-set snapshot.
func (l Layout) KnownSetFilesFile() string {
	return filepath.Join(l.Crashes(), "known_crashes.json")
}

// KnownSetDirsFile is the Known-Set's persisted dirs-set snapshot.
func (l Layout) KnownSetDirsFile() string {
	return filepath.Join(l.Crashes(), "known_dirs.json")
}

// LogFile is the device's structured event log, named <udid>.log directly
// under the device root.
func (l Layout) LogFile(udid string) string {
	return filepath.Join(l.root, udid+".log")
}

// subDirs lists every directory EnsureAll must create, in the same shape
// as the original implementation's SUB_DIRS map.
func (l Layout) subDirs() []string {
	return []string{
		l.Info(),
		l.Connection(),
		l.Heartbeat(),
		l.Crashes(),
		l.CrashFiles(),
		l.Syslog(),
		l.OSTrace(),
		l.OSTraceLog(),
		l.OSTraceArchive(),
		l.OSTracePID(),
		l.ActivityCoverage(),
	}
}

// EnsureAll creates every sub-directory in the layout, including the root,
// if they do not already exist.
func (l Layout) EnsureAll() error {
	for _, dir := range l.subDirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
