// Command imonitor-log is a tool for viewing and analyzing supervisor
// diagnostic log files.
//
// Log files are the CBOR-encoded <udid>.log event streams written by
// pkg/log.FileLogger when a Supervisor runs with a non-noop Logger.
//
// Usage:
//
//	imonitor-log <command> [flags] <file.log>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	imonitor-log view device.log
//
//	# View only error events
//	imonitor-log view --category error device.log
//
//	# View only the crash harvester's events
//	imonitor-log view --task crashes device.log
//
//	# Export to JSONL
//	imonitor-log export --format jsonl device.log
//
//	# Filter by device and save to new file
//	imonitor-log filter --device 00008030-ABCDEF -o filtered.log device.log
//
//	# Show statistics
//	imonitor-log stats device.log
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nop-infra/imonitor-go/cmd/imonitor-log/commands"
)

const usage = `imonitor-log - Supervisor Diagnostic Log Analyzer

Usage:
  imonitor-log <command> [flags] <file.log>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "imonitor-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `imonitor-log view - View log file in human-readable format

Usage:
  imonitor-log view [flags] <file.log>

Flags:
`)
		fs.PrintDefaults()
	}

	task := fs.String("task", "", "Filter by task (supervisor, heartbeat, crashes, trace, archive, syslog)")
	category := fs.String("category", "", "Filter by category (state, error, artifact, readiness)")
	device := fs.String("device", "", "Filter by device UDID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	var filter commands.ViewFilter
	filter.DeviceUDID = *device

	if *task != "" {
		t, err := commands.ParseTaskFlag(*task)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Task = &t
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `imonitor-log export - Export log file to JSON or CSV format

Usage:
  imonitor-log export [flags] <file.log>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `imonitor-log filter - Filter log file and write to new file

Usage:
  imonitor-log filter [flags] <file.log>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	device := fs.String("device", "", "Filter by device UDID")
	session := fs.String("session", "", "Filter by session ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	task := fs.String("task", "", "Filter by task (supervisor, heartbeat, crashes, trace, archive, syslog)")
	category := fs.String("category", "", "Filter by category (state, error, artifact, readiness)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:     *output,
		DeviceUDID: *device,
		SessionID:  *session,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Task:       *task,
		Category:   *category,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `imonitor-log stats - Show statistics about the log file

Usage:
  imonitor-log stats <file.log>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
