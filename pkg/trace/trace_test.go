package trace

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nop-infra/imonitor-go/pkg/coverage"
	"github.com/nop-infra/imonitor-go/pkg/readiness"
	"github.com/nop-infra/imonitor-go/pkg/transport"
)

type fakeTraceStream struct {
	records []string
	i       int
	block   chan struct{}
}

func (f *fakeTraceStream) Next(ctx context.Context) (any, error) {
	if f.i < len(f.records) {
		r := f.records[f.i]
		f.i++
		return r, nil
	}
	if f.block != nil {
		select {
		case <-f.block:
			return nil, errors.New("closed")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, errors.New("EOF")
}

func (f *fakeTraceStream) Close() error {
	if f.block != nil {
		select {
		case <-f.block:
		default:
			close(f.block)
		}
	}
	return nil
}

type fakeTraceSession struct {
	stream *fakeTraceStream
}

func (f *fakeTraceSession) StartTrace(ctx context.Context) (transport.TraceStream, error) {
	return f.stream, nil
}

func (f *fakeTraceSession) CreateArchive(ctx context.Context, dest io.Writer, sizeHintMB, ageHintDays int, startEpoch int64) error {
	return nil
}

func (f *fakeTraceSession) Close() error { return nil }

type fakeTraceService struct {
	session *fakeTraceSession
}

func (f *fakeTraceService) Connect(ctx context.Context) (transport.OSTraceSession, error) {
	return f.session, nil
}

func TestStreamerWritesRecordsToLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "os_trace_log.json")
	writer, err := NewLogWriter(logPath)
	require.NoError(t, err)
	defer writer.Close()

	stream := &fakeTraceStream{records: []string{"a", "b"}, block: make(chan struct{})}
	session := &fakeTraceSession{stream: stream}
	svc := &fakeTraceService{session: session}

	sig := readiness.New()
	sig.Publish(true)
	cov := coverage.NewSet(filepath.Join(dir, "activity_coverage.json"))

	streamer := New("UDID", svc, sig, cov, writer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = streamer.Run(ctx)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"a"`)
	require.Contains(t, string(data), `"b"`)
}

func TestStreamerMergesCoverageOnReadinessDropThenRise(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewLogWriter(filepath.Join(dir, "os_trace_log.json"))
	require.NoError(t, err)
	defer writer.Close()

	stream := &fakeTraceStream{block: make(chan struct{})}
	session := &fakeTraceSession{stream: stream}
	svc := &fakeTraceService{session: session}

	sig := readiness.New()
	sig.Publish(true)
	cov := coverage.NewSet(filepath.Join(dir, "activity_coverage.json"))

	streamer := New("UDID", svc, sig, cov, writer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- streamer.runSession(ctx) }()

	time.Sleep(20 * time.Millisecond)
	sig.Publish(false)
	time.Sleep(20 * time.Millisecond)
	sig.Publish(true)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runSession did not return after drop-then-rise")
	}

	require.NotEmpty(t, cov.Intervals())
}
