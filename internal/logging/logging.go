// Package logging builds the application logger from configuration.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"

	"github.com/seenimoa/stockpulse/internal/config"
)

// New creates a leveled logger. Output goes to cfg.File when set (rotated by
// size), otherwise to stderr as coloured console text or JSON lines
// depending on cfg.Format. Unknown levels fall back to info.
func New(cfg config.LoggingConfig) *log.Logger {
	logger := &log.Logger{
		Level:      parseLevel(cfg.Level),
		TimeFormat: "15:04:05",
	}

	switch {
	case cfg.File != "":
		logger.TimeFormat = ""
		logger.Writer = &log.FileWriter{
			Filename:     cfg.File,
			MaxSize:      20 << 20,
			MaxBackups:   3,
			EnsureFolder: true,
			LocalTime:    true,
		}
	case strings.EqualFold(cfg.Format, "json"):
		logger.TimeFormat = ""
		logger.Writer = &log.IOWriter{Writer: os.Stderr}
	default:
		logger.Writer = &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		}
	}
	return logger
}

// NewWriter creates a JSON logger writing to w. Used where output is captured.
func NewWriter(level string, w io.Writer) *log.Logger {
	return &log.Logger{
		Level:  parseLevel(level),
		Writer: &log.IOWriter{Writer: w},
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return NewWriter("error", io.Discard)
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
