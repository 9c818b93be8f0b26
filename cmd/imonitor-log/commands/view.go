// Package commands implements the imonitor-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/nop-infra/imonitor-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Task       *log.Task
	Category   *log.Category
	DeviceUDID string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)

	fmt.Fprintf(w, "%s [%s] %-8s %-10s %s\n", ts, session, event.DeviceUDID, event.Task.String(), event.Category.String())

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	case event.Artifact != nil:
		formatArtifactDetails(w, event.Artifact)
	case event.Readiness != nil:
		formatReadinessDetails(w, event.Readiness)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatStateChangeDetails writes state transition details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes classified transport error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Kind: %s\n", err.Kind)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatArtifactDetails writes artifact discovery/persistence details.
func formatArtifactDetails(w io.Writer, a *log.ArtifactEvent) {
	fmt.Fprintf(w, "  Kind: %s\n", a.Kind.String())
	fmt.Fprintf(w, "  Name: %s\n", a.Name)
	if a.SizeBytes != nil {
		fmt.Fprintf(w, "  Size: %d bytes\n", *a.SizeBytes)
	}
}

// formatReadinessDetails writes Readiness Signal transition details.
func formatReadinessDetails(w io.Writer, r *log.ReadinessEvent) {
	fmt.Fprintf(w, "  Ready: %t (generation %d)\n", r.Ready, r.Generation)
}

// filterEvents returns events matching the filter criteria.
func filterEvents(events []log.Event, filter ViewFilter) []log.Event {
	var result []log.Event
	for _, e := range events {
		if filter.Task != nil && e.Task != *filter.Task {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		if filter.DeviceUDID != "" && e.DeviceUDID != filter.DeviceUDID {
			continue
		}
		result = append(result, e)
	}
	return result
}

// ParseTaskFlag parses a task string from a command-line flag (case-insensitive).
func ParseTaskFlag(s string) (log.Task, error) {
	return parseTask(s)
}

func parseTask(s string) (log.Task, error) {
	switch strings.ToLower(s) {
	case "supervisor":
		return log.TaskSupervisor, nil
	case "heartbeat":
		return log.TaskHeartbeat, nil
	case "crashes":
		return log.TaskCrashes, nil
	case "trace":
		return log.TaskTrace, nil
	case "archive":
		return log.TaskArchive, nil
	case "syslog":
		return log.TaskSyslog, nil
	default:
		return 0, fmt.Errorf("invalid task: %s (must be supervisor, heartbeat, crashes, trace, archive, or syslog)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "artifact":
		return log.CategoryArtifact, nil
	case "readiness":
		return log.CategoryReadiness, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be state, error, artifact, or readiness)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if filter.Task != nil && event.Task != *filter.Task {
			continue
		}
		if filter.Category != nil && event.Category != *filter.Category {
			continue
		}
		if filter.DeviceUDID != "" && event.DeviceUDID != filter.DeviceUDID {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
