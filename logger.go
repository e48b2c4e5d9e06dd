package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds the workbench logger. The terminal belongs to the TUI,
// so w is normally a log file.
func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
