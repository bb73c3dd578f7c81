// Package logging is the human-readable diagnostic log.
//
// Structured, machine-readable events go through package otel; this log is
// for people reading a file after something went wrong. Until Init is
// called every function is a no-op, which keeps tests quiet.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.RWMutex
	logger  *log.Logger
	logFile *os.File
)

// ParseLevel maps a config string to a level; unknown values mean info.
func ParseLevel(s string) log.Level {
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

// Init opens dir/eidnews-YYYY-MM-DD.log and routes all logging there.
func Init(dir, level string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("eidnews-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	mu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger = newLogger(f, level)
	mu.Unlock()

	Info("eidnews started", "pid", os.Getpid())
	return nil
}

// SetOutput routes logging to w without a file, e.g. stderr for CLI commands.
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, level)
}

func newLogger(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           ParseLevel(level),
	})
}

// Close flushes and closes the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		logger.Info("eidnews shutting down")
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = nil
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Debug(msg, keyvals...)
	}
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Info(msg, keyvals...)
	}
}

// Warn logs a warning.
func Warn(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Warn(msg, keyvals...)
	}
}

// Error logs an error.
func Error(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Error(msg, keyvals...)
	}
}

// WithPrefix returns a prefixed logger, or nil before Init.
func WithPrefix(prefix string) *log.Logger {
	if l := current(); l != nil {
		return l.WithPrefix(prefix)
	}
	return nil
}
