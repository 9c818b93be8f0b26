package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nop-infra/imonitor-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByTask     map[log.Task]int
	EventsByCategory map[log.Category]int
	Devices          map[string]*DeviceStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// DeviceStats holds statistics for a single device UDID.
type DeviceStats struct {
	FirstSeen     time.Time
	LastSeen      time.Time
	Events        int
	ArtifactCount int
	ErrorCount    int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByTask:     make(map[log.Task]int),
		EventsByCategory: make(map[log.Category]int),
		Devices:          make(map[string]*DeviceStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByTask[event.Task]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		dev, ok := stats.Devices[event.DeviceUDID]
		if !ok {
			dev = &DeviceStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Devices[event.DeviceUDID] = dev
		}
		dev.Events++
		if event.Timestamp.After(dev.LastSeen) {
			dev.LastSeen = event.Timestamp
		}

		if event.Artifact != nil {
			dev.ArtifactCount++
		}
		if event.Error != nil {
			stats.Errors++
			dev.ErrorCount++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Supervisor Diagnostic Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Task:")
	for _, task := range []log.Task{log.TaskSupervisor, log.TaskHeartbeat, log.TaskCrashes, log.TaskTrace, log.TaskArchive, log.TaskSyslog} {
		if count := stats.EventsByTask[task]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", task.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryState, log.CategoryError, log.CategoryArtifact, log.CategoryReadiness} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Devices: %d\n", len(stats.Devices))
	if len(stats.Devices) > 0 {
		type devInfo struct {
			udid  string
			stats *DeviceStats
		}
		devs := make([]devInfo, 0, len(stats.Devices))
		for udid, ds := range stats.Devices {
			devs = append(devs, devInfo{udid, ds})
		}
		sort.Slice(devs, func(i, j int) bool {
			return devs[i].stats.FirstSeen.Before(devs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, d := range devs {
			duration := d.stats.LastSeen.Sub(d.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", d.udid, d.stats.Events, duration)
			if d.stats.ArtifactCount > 0 {
				fmt.Fprintf(w, "           Artifacts: %d\n", d.stats.ArtifactCount)
			}
			if d.stats.ErrorCount > 0 {
				fmt.Fprintf(w, "           Errors: %d\n", d.stats.ErrorCount)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
