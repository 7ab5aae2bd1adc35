// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a slog.Logger writing through a charmbracelet handler. Unknown
// levels fall back to info.
func New(w io.Writer, level string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
	})
	return slog.New(handler)
}

// Setup builds a logger with New and installs it as the slog default.
func Setup(w io.Writer, level string) *slog.Logger {
	logger := New(w, level)
	slog.SetDefault(logger)
	return logger
}
