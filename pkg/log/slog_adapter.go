package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful for development when you want to see supervisor activity on console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("device", event.DeviceUDID),
		slog.String("task", event.Task.String()),
		slog.String("category", event.Category.String()),
	}

	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_kind", event.Error.Kind),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	case event.Artifact != nil:
		attrs = append(attrs,
			slog.String("artifact_kind", event.Artifact.Kind.String()),
			slog.String("artifact_name", event.Artifact.Name),
		)
		if event.Artifact.SizeBytes != nil {
			attrs = append(attrs, slog.Int64("artifact_size", *event.Artifact.SizeBytes))
		}
	case event.Readiness != nil:
		attrs = append(attrs,
			slog.Bool("ready", event.Readiness.Ready),
			slog.Uint64("generation", event.Readiness.Generation),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "supervisor", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
