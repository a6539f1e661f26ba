// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog.Logger writing to w at the given level, with
// source locations attached so log lines point back at call sites.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	}))
}

// NewLogger is New writing to stdout, the usual production setup.
func NewLogger(level string) *slog.Logger {
	return New(os.Stdout, level)
}

// ParseLevel maps a config string onto a slog level. Unknown names fall
// back to info so a typo in LOG_LEVEL never silences the service.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	// deployment configs spell this one out
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
