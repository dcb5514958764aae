// Package common provides shared utilities for Extrato
package common

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/phuslu/log"
)

// Logger wraps log.Logger to provide a consistent interface
type Logger struct {
	log.Logger
}

func parseLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLogger creates a new console logger with the specified level
func NewLogger(level string) *Logger {
	return &Logger{Logger: log.Logger{
		Level:      parseLevel(level),
		TimeFormat: time.RFC3339,
		Writer: &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: false,
		},
	}}
}

// NewLoggerWithOutput creates a JSON logger writing to a specific output
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	return &Logger{Logger: log.Logger{
		Level:      parseLevel(level),
		TimeFormat: time.RFC3339,
		Writer:     log.IOWriter{Writer: w},
	}}
}

// NewLoggerFromConfig creates a logger according to the logging section of
// the config. Outputs may list "console" and "file"; file output writes
// rotated JSON lines to FilePath.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	var writers []log.Writer

	if cfg.HasOutput("console") || len(cfg.Outputs) == 0 {
		if cfg.Format == "json" {
			writers = append(writers, log.IOWriter{Writer: os.Stderr})
		} else {
			writers = append(writers, &log.ConsoleWriter{Writer: os.Stderr})
		}
	}

	if cfg.HasOutput("file") && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			writers = append(writers, &log.FileWriter{
				Filename:   cfg.FilePath,
				MaxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
				MaxBackups: cfg.MaxBackups,
			})
		}
	}

	var writer log.Writer
	switch len(writers) {
	case 0:
		writer = log.IOWriter{Writer: io.Discard}
	case 1:
		writer = writers[0]
	default:
		multi := log.MultiEntryWriter(writers)
		writer = &multi
	}

	return &Logger{Logger: log.Logger{
		Level:      parseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Writer:     writer,
	}}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	return &Logger{Logger: log.Logger{
		Level:  log.PanicLevel,
		Writer: log.IOWriter{Writer: io.Discard},
	}}
}
