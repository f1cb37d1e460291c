// Package logging provides a file-backed debug log shared by every
// subsystem. It is intended for troubleshooting document-level issues such
// as malformed exports, unexpected schema contents, and value codec
// failures, and is disabled unless a logger has been installed.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// DebugLogger writes timestamped, subsystem-tagged messages to a dedicated
// debug log file, optionally filtered to a subset of subsystems.
type DebugLogger struct {
	file    *os.File
	mu      sync.Mutex
	closed  bool
	filters map[string]bool // Subsystem filters (empty = log all)
}

// Global debug logger instance
var globalDebugLogger *DebugLogger
var globalDebugMu sync.RWMutex

// Known subsystem names for filtering
var knownSystems = []string{
	"tag",
	"project",
	"dom",
	"web",
	"tui",
	"cli",
	"debug",
}

// NewDebugLogger creates a debug logger writing to the given path. The file
// is created fresh (truncated if it exists) for each session.
func NewDebugLogger(path string) (*DebugLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log file: %w", err)
	}

	logger := &DebugLogger{
		file:    file,
		filters: make(map[string]bool),
	}

	logger.Log("DEBUG", "Debug logging started - %s", time.Now().Format(time.RFC3339))
	logger.Log("DEBUG", "========================================")

	return logger, nil
}

// KnownSystems returns the subsystem names recognized by SetFilter.
func KnownSystems() []string {
	out := make([]string, len(knownSystems))
	copy(out, knownSystems)
	return out
}

// SetFilter restricts logging to a comma-separated list of subsystems.
// An empty string logs everything. Names match case-insensitively.
func (l *DebugLogger) SetFilter(filter string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.filters = make(map[string]bool)

	if filter == "" {
		return // Empty filter = log all
	}

	for _, s := range strings.Split(filter, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s != "" {
			l.filters[s] = true
		}
	}

	if len(l.filters) > 0 {
		names := make([]string, 0, len(l.filters))
		for s := range l.filters {
			names = append(names, s)
		}
		timestamp := time.Now().Format("2006-01-02 15:04:05.000")
		fmt.Fprintf(l.file, "%s [DEBUG] Filtering enabled for subsystems: %s\n",
			timestamp, strings.Join(names, ", "))
	}
}

// shouldLog returns true if the subsystem passes the current filter.
// Must be called with l.mu held.
func (l *DebugLogger) shouldLog(system string) bool {
	if len(l.filters) == 0 {
		return true
	}

	lower := strings.ToLower(system)
	if l.filters[lower] {
		return true
	}

	// Always allow DEBUG messages (for header/footer)
	return lower == "debug"
}

// SetGlobalDebugLogger installs the process-wide debug logger instance.
func SetGlobalDebugLogger(logger *DebugLogger) {
	globalDebugMu.Lock()
	defer globalDebugMu.Unlock()
	globalDebugLogger = logger
}

// GetGlobalDebugLogger returns the process-wide debug logger instance.
func GetGlobalDebugLogger() *DebugLogger {
	globalDebugMu.RLock()
	defer globalDebugMu.RUnlock()
	return globalDebugLogger
}

// Log writes a formatted message with timestamp and subsystem prefix.
func (l *DebugLogger) Log(system, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || !l.shouldLog(system) {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.file, "%s [%s] %s\n", timestamp, system, msg)
}

// LogError logs an error with context.
func (l *DebugLogger) LogError(system, context string, err error) {
	l.Log(system, "ERROR in %s: %v", context, err)
}

// Close closes the debug log file.
func (l *DebugLogger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.file, "%s [DEBUG] Debug logging ended\n", timestamp)

	return l.file.Close()
}

// Global debug logging functions for use by library packages

// DebugLog logs a message if debug logging is enabled.
func DebugLog(system, format string, args ...interface{}) {
	if logger := GetGlobalDebugLogger(); logger != nil {
		logger.Log(system, format, args...)
	}
}

// DebugError logs an error if debug logging is enabled.
func DebugError(system, context string, err error) {
	if logger := GetGlobalDebugLogger(); logger != nil {
		logger.LogError(system, context, err)
	}
}
