// Package logger provides verbose logging for the skysheet CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are written to stderr to show what the minifier does with each file.
package logger

import (
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	std = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *log.Logger {
	l := log.New()
	l.SetOutput(w)
	l.SetLevel(log.ErrorLevel)
	l.SetFormatter(&log.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
	return l
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v {
		std.SetLevel(log.DebugLevel)
	} else {
		std.SetLevel(log.ErrorLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return std.IsLevelEnabled(log.DebugLevel)
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// Debug logs a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	std.Debugf(format, args...)
}

// Info logs an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	std.Infof(format, args...)
}

// Warn logs a warning if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	std.Warnf(format, args...)
}

// WithFile returns an entry tagged with the file being processed.
func WithFile(path string) *log.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return std.WithField("file", path)
}
