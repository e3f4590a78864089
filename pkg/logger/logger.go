// Package logger builds the zerolog loggers used across the CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with component, writing human-readable lines
// to stderr at the given level. Supported levels: debug, info, warn, error.
func New(component, level string) zerolog.Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, component, level)
}

// NewWithWriter is New with an explicit sink
func NewWithWriter(w io.Writer, component, level string) zerolog.Logger {
	zerolog.DurationFieldUnit = time.Millisecond
	return zerolog.New(w).With().
		Timestamp().
		Str("component", component).
		Logger().
		Level(ParseLevel(level))
}

// Nop discards everything
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel maps a config string onto a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
