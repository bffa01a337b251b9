// Package logger provides verbose stderr logging for tread. With the
// --verbose flag set, each pipeline stage (catalog load, chunking,
// embedding, retrieval, prompt assembly) narrates what it did so users
// can see why an answer cited the segments it cited.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit("[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit("[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	emit("[WARN] ", format, args...)
}

// Section prints a header separating one pipeline stage's output from
// the next, if verbose mode is enabled.
func Section(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== "+format+" ===\n", args...)
	}
}

// Elapsed logs how long a stage took. Meant to be deferred with the
// stage's start time:
//
//	defer logger.Elapsed("embedding", time.Now())
func Elapsed(stage string, start time.Time) {
	emit("[DEBUG] ", "%s took %s", stage, time.Since(start).Round(time.Millisecond))
}

func emit(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}
