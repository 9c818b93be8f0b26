// Package heartbeat implements the Heartbeat Supervisor: the task that
// maintains the Readiness Signal by racing a connect attempt against a
// soft-timeout, then exchanging periodic liveness messages once connected.
package heartbeat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nop-infra/imonitor-go/pkg/connection"
	"github.com/nop-infra/imonitor-go/pkg/log"
	"github.com/nop-infra/imonitor-go/pkg/persistence"
	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

const (
	softTimeout      = 7 * time.Second
	optimisticWindow = 420 * time.Second
	reconnectDelay   = 30 * time.Second
	marcoSlack       = 5 * time.Second
)

// Supervisor runs the Heartbeat Supervisor task for one device.
type Supervisor struct {
	udid     string
	service  transport.HeartbeatService
	signal   *readiness.Signal
	lastSeen *persistence.Store[time.Time]
	logger   log.Logger
	backoff  *connection.Backoff

	// sessionID correlates every event logged during the current
	// connection attempt; regenerated on each successful connect.
	sessionID string
}

// New constructs a Supervisor. lastSeenPath is where the last-established
// heartbeat timestamp is persisted (best effort).
func New(udid string, service transport.HeartbeatService, signal *readiness.Signal, lastSeenPath string, logger log.Logger) *Supervisor {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Supervisor{
		udid:     udid,
		service:  service,
		signal:   signal,
		lastSeen: persistence.NewStore[time.Time](lastSeenPath),
		logger:   logger,
		backoff:  connection.NewFixedDelay(reconnectDelay, 0.1),
	}
}

// Run drives the supervisor loop until ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.runOuterIteration(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff.Peek()):
		}
	}
}

// runOuterIteration races the connect branch against the soft-timeout
// branch, exactly once, then returns once the connection (real or
// optimistic) has ended.
func (s *Supervisor) runOuterIteration(ctx context.Context) {
	s.sessionID = ""

	connectCtx, cancelConnect := context.WithCancel(ctx)
	defer cancelConnect()

	connected := make(chan transport.HeartbeatSession, 1)
	connectErr := make(chan error, 1)
	go func() {
		session, err := s.service.Connect(connectCtx)
		if err != nil {
			connectErr <- err
			return
		}
		connected <- session
	}()

	select {
	case session := <-connected:
		s.sessionID = uuid.NewString()
		s.logState(connection.StateDisconnected, connection.StateConnected, "")
		s.signal.Publish(true)
		s.persistLastSeen()
		s.runSession(ctx, session)
		s.signal.Publish(false)
		s.logState(connection.StateConnected, connection.StateDisconnected, "")

	case err := <-connectErr:
		s.logError("connect", err)

	case <-time.After(softTimeout):
		s.logState(connection.StateConnecting, connection.StateOptimisticReady, "soft-timeout elapsed before connect returned")
		s.signal.Publish(true)
		select {
		case session := <-connected:
			// Connect eventually succeeded during the optimistic window;
			// treat it like a normal connect from here on.
			s.sessionID = uuid.NewString()
			s.persistLastSeen()
			s.runSession(ctx, session)
		case err := <-connectErr:
			s.logError("connect", err)
		case <-time.After(optimisticWindow):
		case <-ctx.Done():
		}
		s.signal.Publish(false)

	case <-ctx.Done():
	}
}

// runSession exchanges marco/polo until a read or write error occurs.
func (s *Supervisor) runSession(ctx context.Context, session transport.HeartbeatSession) {
	defer session.Close()

	deadline := marcoSlack
	for {
		readCtx, cancel := context.WithTimeout(ctx, deadline)
		hint, err := session.RecvMarco(readCtx)
		cancel()
		if err != nil {
			s.logError("recv_marco", err)
			return
		}

		if err := session.SendPolo(ctx); err != nil {
			s.logError("send_polo", err)
			return
		}

		deadline = time.Duration(hint)*time.Second + marcoSlack
	}
}

func (s *Supervisor) persistLastSeen() {
	if err := s.lastSeen.Save(time.Now().UTC()); err != nil {
		s.logError("persist_last_seen", err)
	}
}

func (s *Supervisor) logState(oldState, newState connection.State, reason string) {
	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: s.udid,
		SessionID:  s.sessionID,
		Task:       log.TaskHeartbeat,
		Category:   log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})
}

func (s *Supervisor) logError(op string, err error) {
	kind := transport.Classify(err)
	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: s.udid,
		SessionID:  s.sessionID,
		Task:       log.TaskHeartbeat,
		Category:   log.CategoryError,
		Error: &log.ErrorEventData{
			Kind:    kind.String(),
			Message: err.Error(),
			Context: op,
		},
	})
}
