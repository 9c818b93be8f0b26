package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlogAdapterLogsStateChangeEvent(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(slogger)
	adapter.Log(Event{
		Timestamp:  time.Now(),
		DeviceUDID: "dev-1",
		Task:       TaskHeartbeat,
		Category:   CategoryState,
		StateChange: &StateChangeEvent{
			OldState: "DISCONNECTED",
			NewState: "CONNECTING",
		},
	})

	require.NotEmpty(t, buf.String())

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

	require.Equal(t, "dev-1", logEntry["device"])
	require.Equal(t, "HEARTBEAT", logEntry["task"])
	require.Equal(t, "STATE", logEntry["category"])
	require.Equal(t, "CONNECTING", logEntry["new_state"])
}

func TestSlogAdapterLogsErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(slogger)
	adapter.Log(Event{
		Timestamp:  time.Now(),
		DeviceUDID: "dev-2",
		Task:       TaskCrashes,
		Category:   CategoryError,
		Error:      &ErrorEventData{Kind: "Timeout", Message: "poll timed out"},
	})

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	require.Equal(t, "Timeout", logEntry["error_kind"])
	require.Equal(t, "poll timed out", logEntry["error_msg"])
}

func TestSlogAdapterLogsArtifactEvent(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(slogger)
	adapter.Log(Event{
		Timestamp:  time.Now(),
		DeviceUDID: "dev-3",
		Task:       TaskArchive,
		Category:   CategoryArtifact,
		Artifact:   &ArtifactEvent{Kind: ArtifactArchive, Name: "archive-001.tar"},
	})

	require.True(t, strings.Contains(buf.String(), "archive-001.tar"))
}

func TestSlogAdapterIncludesSessionID(t *testing.T) {
	var buf bytes.Buffer
	slogger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(slogger)
	adapter.Log(Event{
		Timestamp:  time.Now(),
		DeviceUDID: "dev-4",
		Task:       TaskHeartbeat,
		Category:   CategoryState,
		SessionID:  "abc12345-def6-7890",
		StateChange: &StateChangeEvent{
			NewState: "CONNECTED",
		},
	})

	require.True(t, strings.Contains(buf.String(), "abc12345-def6-7890"))
}

func TestSlogAdapterInterfaceSatisfaction(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
}
