package main

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a leveled logger with short timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "hanzibox",
	})
}

// parseLevel maps LOG_LEVEL to a log level, defaulting to info.
func parseLevel(s string, verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
