package syslog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

type fakeSyslogSession struct {
	lines []string
	i     int
	block chan struct{}
}

func (f *fakeSyslogSession) Next(ctx context.Context) (string, error) {
	if f.i < len(f.lines) {
		l := f.lines[f.i]
		f.i++
		return l, nil
	}
	select {
	case <-f.block:
		return "", errors.New("closed")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeSyslogSession) Close() error {
	select {
	case <-f.block:
	default:
		close(f.block)
	}
	return nil
}

type fakeSyslogService struct {
	session *fakeSyslogSession
}

func (f *fakeSyslogService) Connect(ctx context.Context) (transport.SyslogSession, error) {
	return f.session, nil
}

func TestCollectorWritesLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syslog.log")
	writer, err := NewLineWriter(path)
	require.NoError(t, err)
	defer writer.Close()

	session := &fakeSyslogSession{lines: []string{"one", "two"}, block: make(chan struct{})}
	svc := &fakeSyslogService{session: session}

	sig := readiness.New()
	sig.Publish(true)

	c := New("UDID", svc, sig, writer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_ = c.Run(ctx)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\n", string(data))
}

func TestCollectorStopsOnReadinessDrop(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewLineWriter(filepath.Join(dir, "syslog.log"))
	require.NoError(t, err)
	defer writer.Close()

	session := &fakeSyslogSession{block: make(chan struct{})}
	svc := &fakeSyslogService{session: session}

	sig := readiness.New()
	sig.Publish(true)

	c := New("UDID", svc, sig, writer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.runSession(ctx) }()

	time.Sleep(20 * time.Millisecond)
	sig.Publish(false)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runSession did not return after readiness drop")
	}
}
