// Package archive implements the Archive Backfiller: the task that fills
// Coverage Set gaps by requesting sysdiagnose archives from the OS-trace
// relay for the time ranges no Trace Streamer session actually covered.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nop-infra/imonitor-go/pkg/coverage"
	"github.com/nop-infra/imonitor-go/pkg/log"
	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

const (
	connectCap      = 2 * time.Second
	cadence         = 60 * time.Second
	gapFailWait     = 60 * time.Second
	connectFailWait = 5 * time.Second

	sizeHintMB  = 5
	ageHintDays = 1
)

// Backfiller runs the Archive Backfiller task for one device.
type Backfiller struct {
	udid       string
	service    transport.OSTraceService
	signal     *readiness.Signal
	coverage   *coverage.Set
	archiveDir string
	logger     log.Logger
}

// New constructs a Backfiller. archiveDir is where completed archive tar
// files are written.
func New(udid string, service transport.OSTraceService, signal *readiness.Signal, cov *coverage.Set, archiveDir string, logger log.Logger) *Backfiller {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Backfiller{
		udid:       udid,
		service:    service,
		signal:     signal,
		coverage:   cov,
		archiveDir: archiveDir,
		logger:     logger,
	}
}

// Run drives the backfiller loop until ctx is canceled.
func (b *Backfiller) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := b.signal.WaitUntilTrue(ctx); err != nil {
			return err
		}

		if err := b.runIteration(ctx); err != nil {
			b.logError("connect", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(connectFailWait):
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cadence):
		}
	}
}

// runIteration connects once and fills every current gap.
func (b *Backfiller) runIteration(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, connectCap)
	session, err := b.service.Connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer session.Close()

	gaps := b.coverage.Gaps()
	for _, gap := range gaps {
		if err := b.fillGap(ctx, session, gap); err != nil {
			b.logError("fill_gap", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(gapFailWait):
			}
		}
	}

	return nil
}

func (b *Backfiller) fillGap(ctx context.Context, session transport.OSTraceSession, gap coverage.Interval) error {
	startEpoch := gap.Start.Unix()
	destPath := filepath.Join(b.archiveDir, fmt.Sprintf("%s_%d.tar", b.udid, startEpoch))

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := session.CreateArchive(ctx, f, sizeHintMB, ageHintDays, startEpoch); err != nil {
		return err
	}

	// Canonical strategy: trust the requested gap rather than parsing the
	// archive's embedded Info.plist timestamps.
	b.coverage.Add(gap.Start, gap.End)
	if err := b.coverage.Save(); err != nil {
		b.logError("persist_coverage", err)
	}

	info, statErr := f.Stat()
	var size *int64
	if statErr == nil {
		s := info.Size()
		size = &s
	}
	b.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: b.udid,
		Task:       log.TaskArchive,
		Category:   log.CategoryArtifact,
		Artifact: &log.ArtifactEvent{
			Kind:      log.ArtifactArchive,
			Name:      filepath.Base(destPath),
			SizeBytes: size,
		},
	})

	return nil
}

func (b *Backfiller) logError(op string, err error) {
	kind := transport.Classify(err)
	b.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: b.udid,
		Task:       log.TaskArchive,
		Category:   log.CategoryError,
		Error: &log.ErrorEventData{
			Kind:    kind.String(),
			Message: err.Error(),
			Context: op,
		},
	})
}
