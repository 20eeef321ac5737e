// Package logging builds the process logger. Every component receives a
// child of this logger with its own component key; nothing logs through a
// global.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Environment variables honored by New.
const (
	// EnvLevel sets the minimum level: debug, info, warn, error.
	EnvLevel = "AHODY_LOG_LEVEL"

	// EnvFormat selects the output format: text, json, or logfmt.
	EnvFormat = "AHODY_LOG_FORMAT"
)

// New builds the root logger writing to w. level and format come from the
// environment via the Env* variables; unrecognized values fall back to info
// and text.
func New(w io.Writer, prefix string, getenv func(string) string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})

	logger.SetLevel(parseLevel(getenv(EnvLevel)))
	logger.SetFormatter(parseFormat(getenv(EnvFormat)))
	return logger
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func parseFormat(s string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
