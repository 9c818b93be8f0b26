package commands

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/nop-infra/imonitor-go/pkg/log"
)

func TestFilterByDeviceUDID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, DeviceUDID: "udid-1", Category: log.CategoryState},
		{Timestamp: ts, DeviceUDID: "udid-2", Category: log.CategoryState},
		{Timestamp: ts, DeviceUDID: "udid-1", Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.log")

	err := RunFilter(path, FilterOptions{
		Output:     outPath,
		DeviceUDID: "udid-1",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.DeviceUDID != "udid-1" {
			t.Errorf("expected udid-1, got %s", event.DeviceUDID)
		}
		count++
	}

	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, DeviceUDID: "udid-1", Category: log.CategoryState},
		{Timestamp: base.Add(time.Hour), DeviceUDID: "udid-1", Category: log.CategoryState},
		{Timestamp: base.Add(2 * time.Hour), DeviceUDID: "udid-1", Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.log")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: base.Add(30 * time.Minute).Format(time.RFC3339),
		TimeEnd:   base.Add(90 * time.Minute).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		count++
	}

	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestFilterCommandByTask(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Task: log.TaskHeartbeat, Category: log.CategoryState},
		{Timestamp: ts, Task: log.TaskCrashes, Category: log.CategoryArtifact},
		{Timestamp: ts, Task: log.TaskTrace, Category: log.CategoryArtifact},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.log")

	err := RunFilter(path, FilterOptions{
		Output: outPath,
		Task:   "crashes",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.Task != log.TaskCrashes {
			t.Errorf("expected crashes task, got %v", event.Task)
		}
		count++
	}

	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestFilterWritesCBOR(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, DeviceUDID: "udid-1", Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.log")

	err := RunFilter(path, FilterOptions{
		Output: outPath,
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output as CBOR: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if event.DeviceUDID != "udid-1" {
		t.Errorf("expected udid-1, got %s", event.DeviceUDID)
	}
}
