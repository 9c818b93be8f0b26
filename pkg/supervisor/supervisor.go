// Package supervisor wires the four (or five) per-device tasks (Heartbeat
// Supervisor, Crash Harvester, Trace Streamer, Archive Backfiller, and the
// optional syslog collector) to the shared Readiness Signal, Coverage
// Set and Known-Set, and runs them concurrently for one device.
package supervisor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nop-infra/imonitor-go/pkg/archive"
	"github.com/nop-infra/imonitor-go/pkg/coverage"
	"github.com/nop-infra/imonitor-go/pkg/crashes"
	"github.com/nop-infra/imonitor-go/pkg/heartbeat"
	"github.com/nop-infra/imonitor-go/pkg/knownset"
	"github.com/nop-infra/imonitor-go/pkg/log"
	"github.com/nop-infra/imonitor-go/pkg/paths"
	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/syslog"
	"github.com/nop-infra/imonitor-go/pkg/trace"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

// Services bundles one device's device-services transport connections.
// SyslogService may be nil when Config.SyslogEnabled is false.
type Services struct {
	Heartbeat transport.HeartbeatService
	Crashes   transport.CrashService
	OSTrace   transport.OSTraceService
	Syslog    transport.SyslogService
}

// Config configures one device's Supervisor.
type Config struct {
	UDID    string
	BaseDir string
	Logger  log.Logger

	// SyslogEnabled toggles the optional syslog collector. Disabled by
	// default, matching the original implementation's collector being
	// commented out at the supervisor level.
	SyslogEnabled bool
}

// Supervisor owns the shared per-device state and runs its tasks.
type Supervisor struct {
	cfg      Config
	layout   paths.Layout
	services Services
	signal   *readiness.Signal
	coverage *coverage.Set
	known    *knownset.KnownSet
	logger   log.Logger
}

// New constructs a Supervisor for one device. It does not touch disk or
// start any task; call Load then Run.
func New(cfg Config, services Services) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	layout := paths.NewLayout(cfg.BaseDir, cfg.UDID)

	return &Supervisor{
		cfg:      cfg,
		layout:   layout,
		services: services,
		signal:   readiness.New(),
		coverage: coverage.NewSet(layout.ActivityCoverageFile()),
		known:    knownset.New(layout.KnownSetFilesFile(), layout.KnownSetDirsFile()),
		logger:   logger,
	}
}

// Load creates the device's on-disk directory layout and seeds the
// Coverage Set / Known-Set from any prior run.
func (s *Supervisor) Load() error {
	if err := s.layout.EnsureAll(); err != nil {
		return err
	}
	if err := s.coverage.Load(); err != nil {
		return err
	}
	return s.known.Load()
}

// Signal returns the shared Readiness Signal, primarily for tests and
// diagnostics.
func (s *Supervisor) Signal() *readiness.Signal { return s.signal }

// Run starts every task as a goroutine and blocks until ctx is canceled or
// any task returns a non-context error, at which point the remaining
// tasks are canceled and, once all have returned, the first error is
// returned. The Readiness Signal is
// closed on the way out so any lingering waiter observes cancellation.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.signal.Close()

	group, groupCtx := errgroup.WithContext(ctx)

	hb := heartbeat.New(s.cfg.UDID, s.services.Heartbeat, s.signal, s.layout.HeartbeatLastEstablishedFile(), s.logger)
	group.Go(func() error { return hb.Run(groupCtx) })

	harvester := crashes.New(s.cfg.UDID, s.services.Crashes, s.signal, s.known, s.layout.CrashFiles(), s.logger)
	group.Go(func() error { return harvester.Run(groupCtx) })

	traceWriter, err := trace.NewLogWriter(s.layout.OSTraceLog() + "/os_trace_log.json")
	if err != nil {
		return err
	}
	defer traceWriter.Close()

	streamer := trace.New(s.cfg.UDID, traceService(s.services), s.signal, s.coverage, traceWriter, s.logger)
	group.Go(func() error { return streamer.Run(groupCtx) })

	backfiller := archive.New(s.cfg.UDID, traceService(s.services), s.signal, s.coverage, s.layout.OSTraceArchive(), s.logger)
	group.Go(func() error { return backfiller.Run(groupCtx) })

	if s.cfg.SyslogEnabled && s.services.Syslog != nil {
		syslogWriter, err := syslog.NewLineWriter(s.layout.Syslog() + "/syslog.log")
		if err != nil {
			return err
		}
		defer syslogWriter.Close()

		collector := syslog.New(s.cfg.UDID, s.services.Syslog, s.signal, syslogWriter, s.logger)
		group.Go(func() error { return collector.Run(groupCtx) })
	}

	return group.Wait()
}

// traceService returns the one OSTraceService shared by the Trace
// Streamer and the Archive Backfiller.
func traceService(svc Services) transport.OSTraceService {
	return svc.OSTrace
}
