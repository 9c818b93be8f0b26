// Package trace implements the Trace Streamer: the task that streams
// structured OS-trace log records to an append-only file and tracks which
// wall-clock intervals were actually captured via the Coverage Set.
package trace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nop-infra/imonitor-go/pkg/coverage"
	"github.com/nop-infra/imonitor-go/pkg/log"
	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

const (
	connectCap = 2 * time.Second
	retryDelay = 5 * time.Second
)

// Streamer runs the Trace Streamer task for one device.
type Streamer struct {
	udid     string
	service  transport.OSTraceService
	signal   *readiness.Signal
	coverage *coverage.Set
	writer   *LogWriter
	logger   log.Logger

	// sessionID correlates every event logged during the current
	// connection attempt; regenerated on each successful connect.
	sessionID string
}

// New constructs a Streamer. writer and cov are owned by the caller; cov
// is shared with the Archive Backfiller.
func New(udid string, service transport.OSTraceService, signal *readiness.Signal, cov *coverage.Set, writer *LogWriter, logger log.Logger) *Streamer {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Streamer{
		udid:     udid,
		service:  service,
		signal:   signal,
		coverage: cov,
		writer:   writer,
		logger:   logger,
	}
}

// Run drives the streamer loop until ctx is canceled.
func (s *Streamer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := s.signal.WaitUntilTrue(ctx); err != nil {
			return err
		}

		if err := s.runSession(ctx); err != nil {
			s.logError("session", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
}

// runSession connects, starts a trace stream, and streams records until
// either a transport error or a readiness drop-then-rise restart signal.
func (s *Streamer) runSession(ctx context.Context) error {
	s.sessionID = ""

	connectCtx, cancel := context.WithTimeout(ctx, connectCap)
	session, err := s.service.Connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer session.Close()

	s.sessionID = uuid.NewString()

	stream, err := session.StartTrace(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	intervalStart := time.Now()
	_, generation := s.signal.Value()

	restart := make(chan struct{}, 1)
	restartErr := make(chan error, 1)
	go func() {
		v, gen, err := s.signal.WaitForChange(ctx, generation)
		if err != nil {
			restartErr <- err
			return
		}
		if v {
			// Already true again without us observing the drop; treat as
			// restart immediately rather than waiting further.
			restart <- struct{}{}
			return
		}
		if err := s.signal.WaitUntilTrue(ctx); err != nil {
			restartErr <- err
			return
		}
		_ = gen
		restart <- struct{}{}
	}()

	type nextResult struct {
		record any
		err    error
	}

	for {
		next := make(chan nextResult, 1)
		go func() {
			record, err := stream.Next(ctx)
			next <- nextResult{record, err}
		}()

		select {
		case r := <-next:
			if r.err != nil {
				return r.err
			}
			if writeErr := s.writer.WriteRecord(r.record); writeErr != nil {
				return writeErr
			}
			s.logArtifact(r.record)

		case <-restart:
			s.recordInterval(intervalStart, time.Now())
			return nil

		case err := <-restartErr:
			return err

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Streamer) recordInterval(start, end time.Time) {
	s.coverage.Add(start, end)
	if err := s.coverage.Save(); err != nil {
		s.logError("persist_coverage", err)
	}
}

func (s *Streamer) logArtifact(record any) {
	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: s.udid,
		SessionID:  s.sessionID,
		Task:       log.TaskTrace,
		Category:   log.CategoryArtifact,
		Artifact: &log.ArtifactEvent{
			Kind: log.ArtifactTraceLog,
			Name: "os_trace_log.json",
		},
	})
	_ = record
}

func (s *Streamer) logError(op string, err error) {
	kind := transport.Classify(err)
	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: s.udid,
		SessionID:  s.sessionID,
		Task:       log.TaskTrace,
		Category:   log.CategoryError,
		Error: &log.ErrorEventData{
			Kind:    kind.String(),
			Message: err.Error(),
			Context: op,
		},
	})
}
