package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())

	return path
}

func readAll(t *testing.T, reader *Reader) []Event {
	t.Helper()
	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		read = append(read, event)
	}
	return read
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), DeviceUDID: "dev-1", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: time.Now(), DeviceUDID: "dev-2", Task: TaskCrashes, Category: CategoryArtifact},
		{Timestamp: time.Now(), DeviceUDID: "dev-3", Task: TaskTrace, Category: CategoryError},
	}

	path := createTestLogFile(t, events)

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	read := readAll(t, reader)
	require.Len(t, read, 3)
	require.Equal(t, "dev-1", read[0].DeviceUDID)
	require.Equal(t, "dev-3", read[2].DeviceUDID)
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.log")

	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderHandlesAllEventsConsumed(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), DeviceUDID: "dev-1", Task: TaskHeartbeat, Category: CategoryState},
	}

	path := createTestLogFile(t, events)

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.Next()
	require.NoError(t, err)

	_, err = reader.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderFilterByDeviceUDID(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), DeviceUDID: "dev-A", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: time.Now(), DeviceUDID: "dev-B", Task: TaskCrashes, Category: CategoryArtifact},
		{Timestamp: time.Now(), DeviceUDID: "dev-A", Task: TaskTrace, Category: CategoryError},
		{Timestamp: time.Now(), DeviceUDID: "dev-C", Task: TaskArchive, Category: CategoryArtifact},
	}

	path := createTestLogFile(t, events)

	reader, err := NewFilteredReader(path, Filter{DeviceUDID: "dev-A"})
	require.NoError(t, err)
	defer reader.Close()

	read := readAll(t, reader)
	require.Len(t, read, 2)
	for _, e := range read {
		require.Equal(t, "dev-A", e.DeviceUDID)
	}
}

func TestReaderFilterByTask(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), DeviceUDID: "dev-1", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: time.Now(), DeviceUDID: "dev-1", Task: TaskCrashes, Category: CategoryArtifact},
		{Timestamp: time.Now(), DeviceUDID: "dev-1", Task: TaskCrashes, Category: CategoryError},
		{Timestamp: time.Now(), DeviceUDID: "dev-1", Task: TaskTrace, Category: CategoryState},
	}

	path := createTestLogFile(t, events)

	task := TaskCrashes
	reader, err := NewFilteredReader(path, Filter{Task: &task})
	require.NoError(t, err)
	defer reader.Close()

	read := readAll(t, reader)
	require.Len(t, read, 2)
	for _, e := range read {
		require.Equal(t, TaskCrashes, e.Task)
	}
}

func TestReaderFilterByTimeRange(t *testing.T) {
	baseTime := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)

	events := []Event{
		{Timestamp: baseTime.Add(-1 * time.Hour), DeviceUDID: "dev-1", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: baseTime, DeviceUDID: "dev-2", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: baseTime.Add(30 * time.Minute), DeviceUDID: "dev-3", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: baseTime.Add(2 * time.Hour), DeviceUDID: "dev-4", Task: TaskHeartbeat, Category: CategoryState},
	}

	path := createTestLogFile(t, events)

	start := baseTime.Add(-5 * time.Minute)
	end := baseTime.Add(1 * time.Hour)
	reader, err := NewFilteredReader(path, Filter{TimeStart: &start, TimeEnd: &end})
	require.NoError(t, err)
	defer reader.Close()

	read := readAll(t, reader)
	require.Len(t, read, 2)
	require.Equal(t, "dev-2", read[0].DeviceUDID)
	require.Equal(t, "dev-3", read[1].DeviceUDID)
}

func TestReaderFilterByCategory(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), DeviceUDID: "dev-1", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: time.Now(), DeviceUDID: "dev-2", Task: TaskCrashes, Category: CategoryError},
		{Timestamp: time.Now(), DeviceUDID: "dev-3", Task: TaskTrace, Category: CategoryError},
		{Timestamp: time.Now(), DeviceUDID: "dev-4", Task: TaskArchive, Category: CategoryArtifact},
	}

	path := createTestLogFile(t, events)

	cat := CategoryError
	reader, err := NewFilteredReader(path, Filter{Category: &cat})
	require.NoError(t, err)
	defer reader.Close()

	read := readAll(t, reader)
	require.Len(t, read, 2)
	for _, e := range read {
		require.Equal(t, CategoryError, e.Category)
	}
}

func TestReaderCombinedFilters(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), DeviceUDID: "dev-A", Task: TaskHeartbeat, Category: CategoryState},
		{Timestamp: time.Now(), DeviceUDID: "dev-A", Task: TaskCrashes, Category: CategoryArtifact},
		{Timestamp: time.Now(), DeviceUDID: "dev-B", Task: TaskCrashes, Category: CategoryArtifact},
		{Timestamp: time.Now(), DeviceUDID: "dev-A", Task: TaskCrashes, Category: CategoryError},
	}

	path := createTestLogFile(t, events)

	task := TaskCrashes
	cat := CategoryArtifact
	reader, err := NewFilteredReader(path, Filter{DeviceUDID: "dev-A", Task: &task, Category: &cat})
	require.NoError(t, err)
	defer reader.Close()

	read := readAll(t, reader)
	require.Len(t, read, 1)
	require.Equal(t, "dev-A", read[0].DeviceUDID)
	require.Equal(t, TaskCrashes, read[0].Task)
	require.Equal(t, CategoryArtifact, read[0].Category)
}
