// Package syslog implements the optional syslog collector: a simplified
// Trace Streamer shape that appends the device's system log lines to a
// file instead of structured OS-trace records. Disabled by default (see
// supervisor.Config.SyslogEnabled).
package syslog

import (
	"bufio"
	"context"
	"os"
	"sync"
	"time"

	"github.com/nop-infra/imonitor-go/pkg/log"
	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

const (
	connectCap = 2 * time.Second
	retryDelay = 5 * time.Second
)

// LineWriter appends syslog lines to an append-only file.
type LineWriter struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	closed bool
}

// NewLineWriter opens path for append, creating it if necessary.
func NewLineWriter(path string) (*LineWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &LineWriter{file: f, buf: bufio.NewWriter(f)}, nil
}

// WriteLine appends line followed by a newline.
func (w *LineWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if _, err := w.buf.WriteString(line); err != nil {
		return err
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return err
	}
	return w.buf.Flush()
}

// Close flushes and closes the underlying file.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Collector runs the syslog collector task for one device.
type Collector struct {
	udid    string
	service transport.SyslogService
	signal  *readiness.Signal
	writer  *LineWriter
	logger  log.Logger
}

// New constructs a Collector.
func New(udid string, service transport.SyslogService, signal *readiness.Signal, writer *LineWriter, logger log.Logger) *Collector {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Collector{udid: udid, service: service, signal: signal, writer: writer, logger: logger}
}

// Run drives the collector loop until ctx is canceled. Unlike the Trace
// Streamer, there is no Coverage Set to maintain; any transport error or
// readiness drop simply ends the session and the outer loop reconnects.
func (c *Collector) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.signal.WaitUntilTrue(ctx); err != nil {
			return err
		}

		if err := c.runSession(ctx); err != nil {
			c.logError("session", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
}

func (c *Collector) runSession(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, connectCap)
	session, err := c.service.Connect(connectCtx)
	cancel()
	if err != nil {
		return err
	}
	defer session.Close()

	_, generation := c.signal.Value()

	changed := make(chan error, 1)
	go func() {
		_, _, err := c.signal.WaitForChange(ctx, generation)
		changed <- err
	}()

	type nextResult struct {
		line string
		err  error
	}

	for {
		next := make(chan nextResult, 1)
		go func() {
			line, err := session.Next(ctx)
			next <- nextResult{line, err}
		}()

		select {
		case r := <-next:
			if r.err != nil {
				return r.err
			}
			if err := c.writer.WriteLine(r.line); err != nil {
				return err
			}

		case <-changed:
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Collector) logError(op string, err error) {
	kind := transport.Classify(err)
	c.logger.Log(log.Event{
		Timestamp:  time.Now(),
		DeviceUDID: c.udid,
		Task:       log.TaskSyslog,
		Category:   log.CategoryError,
		Error: &log.ErrorEventData{
			Kind:    kind.String(),
			Message: err.Error(),
			Context: op,
		},
	})
}
