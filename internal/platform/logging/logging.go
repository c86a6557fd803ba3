package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// ParseLevel maps debug|info|warn|error to a slog level. Unknown values fall
// back to info and report ok=false so the caller can warn once the logger exists.
func ParseLevel(value string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New builds the JSON logger used by every service binary.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
	logger := slog.New(slog.NewJSONHandler(w, opts))
	if strings.TrimSpace(service) != "" {
		logger = logger.With("service", strings.TrimSpace(service))
	}
	return logger
}
