// Package crashes implements the Crash Harvester: the task that lists and
// downloads crash reports from a device, deduplicating against the
// Known-Set across reboots and reconnects.
package crashes

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nop-infra/imonitor-go/pkg/connection"
	"github.com/nop-infra/imonitor-go/pkg/knownset"
	"github.com/nop-infra/imonitor-go/pkg/log"
	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

const (
	connectCap   = 2 * time.Second
	pollInterval = 15 * time.Second

	inProgressPrefix = "IN_PROGRESS_sysdiagnose_"
)

// Harvester runs the Crash Harvester task for one device.
type Harvester struct {
	udid     string
	service  transport.CrashService
	signal   *readiness.Signal
	known    *knownset.KnownSet
	filesDir string
	logger   log.Logger
	backoff  *connection.Backoff

	// sessionID correlates every event logged during the current
	// connection attempt; regenerated on each successful connect.
	sessionID string
}

// New constructs a Harvester. filesDir is where downloaded crash files are
// written (<filesDir>/<path>). known should already have been Load()ed by
// the caller so prior sessions' state seeds the dedup sets.
func New(udid string, service transport.CrashService, signal *readiness.Signal, known *knownset.KnownSet, filesDir string, logger log.Logger) *Harvester {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Harvester{
		udid:     udid,
		service:  service,
		signal:   signal,
		known:    known,
		filesDir: filesDir,
		logger:   logger,
		backoff:  connection.NewFixedDelay(pollInterval, 0.1),
	}
}

// Run drives the harvester loop until ctx is canceled.
func (h *Harvester) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := h.signal.WaitUntilTrue(ctx); err != nil {
			return err
		}

		h.runSession(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.backoff.Peek()):
		}
	}
}

// runSession connects once and polls it every pollInterval until a
// session-level error occurs.
func (h *Harvester) runSession(ctx context.Context) {
	h.sessionID = ""

	connectCtx, cancel := context.WithTimeout(ctx, connectCap)
	session, err := h.service.Connect(connectCtx)
	cancel()
	if err != nil {
		h.logError("connect", err)
		return
	}
	defer session.Close()

	h.sessionID = uuid.NewString()

	for {
		if err := h.poll(ctx, session); err != nil {
			h.logError("poll", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

// poll runs one full candidates/to_fetch iteration against session.
func (h *Harvester) poll(ctx context.Context, session transport.CrashSession) error {
	candidates, err := session.List(ctx, "")
	if err != nil {
		return err
	}

	for _, dir := range h.known.Dirs() {
		entries, err := session.List(ctx, dir)
		if err != nil {
			h.known.ForgetDir(dir)
			continue
		}
		for _, name := range entries {
			if name == "." || name == ".." || strings.HasPrefix(name, inProgressPrefix) {
				continue
			}
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	giveUp := map[string]struct{}{}
	toFetch := h.toFetch(candidates)

	for _, path := range toFetch {
		if h.fetchOne(ctx, session, path, giveUp) {
			h.persist(candidates, giveUp)
		}
	}

	return nil
}

// toFetch computes candidates - files - dirs.
func (h *Harvester) toFetch(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if h.known.IsFile(c) || h.known.IsDir(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// fetchOne attempts to pull path, reporting true only on a successful
// write: the only case the poll loop persists the known-set for.
func (h *Harvester) fetchOne(ctx context.Context, session transport.CrashSession, path string, giveUp map[string]struct{}) bool {
	data, err := session.Pull(ctx, path)
	if err == nil {
		dest := filepath.Join(h.filesDir, path)
		if mkErr := os.MkdirAll(filepath.Dir(dest), 0o755); mkErr != nil {
			h.logError("mkdir", mkErr)
			return false
		}
		if writeErr := os.WriteFile(dest, data, 0o644); writeErr != nil {
			h.logError("write_crash_file", writeErr)
			return false
		}
		h.known.MarkFile(path)
		h.logArtifact(log.ArtifactCrashFile, path, int64(len(data)))
		return true
	}

	info, infoErr := session.FileInfo(ctx, path)
	if infoErr == nil && info.IsDir {
		h.known.MarkDir(path)
		h.logArtifact(log.ArtifactCrashDir, path, 0)
		return false
	}

	kind := transport.Classify(err)
	if kind == transport.KindObjectNotFound || kind == transport.KindPermissionDenied {
		giveUp[path] = struct{}{}
		return false
	}

	h.logError("pull", err)
	return false
}

// persist writes the known-set to disk. The persisted files set is this
// iteration's candidates minus give_up, restricted to paths already marked
// as downloaded files via MarkFile; known files that this iteration's
// listing no longer returns are dropped from the set.
func (h *Harvester) persist(candidates []string, giveUp map[string]struct{}) {
	kept := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := giveUp[c]; skip {
			continue
		}
		if h.known.IsFile(c) {
			kept = append(kept, c)
		}
	}
	h.known.SetFiles(kept)

	if err := h.known.Save(); err != nil {
		h.logError("persist_known_set", err)
	}
}

func (h *Harvester) logArtifact(kind log.ArtifactKind, name string, size int64) {
	h.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: h.udid,
		SessionID:  h.sessionID,
		Task:       log.TaskCrashes,
		Category:   log.CategoryArtifact,
		Artifact: &log.ArtifactEvent{
			Kind:      kind,
			Name:      name,
			SizeBytes: &size,
		},
	})
}

func (h *Harvester) logError(op string, err error) {
	kind := transport.Classify(err)
	h.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: h.udid,
		SessionID:  h.sessionID,
		Task:       log.TaskCrashes,
		Category:   log.CategoryError,
		Error: &log.ErrorEventData{
			Kind:    kind.String(),
			Message: err.Error(),
			Context: op,
		},
	})
}
