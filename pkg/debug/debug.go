// Package debug provides conditional debug logging for tableside.
//
// Debug logging is enabled by setting the TABLESIDE_DEBUG environment variable:
//
//	TABLESIDE_DEBUG=1 tableside run
//
// When enabled, debug messages are written to stderr (or the writer passed to
// SetOutput) with timestamps. When disabled (default), all debug functions are
// no-ops.
//
// Usage:
//
//	debug.Log("walkthrough: polling %q (attempt %d)", selector, n)
//	defer debug.LogEnterExit("controller.sync")()
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const prefix = "[TS_DEBUG] "

var (
	mu      sync.Mutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TABLESIDE_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. The TUI points this at a file so log
// lines do not tear the alt screen.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

func active() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return nil
	}
	return logger
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if l := active(); l != nil {
		l.Printf(format, args...)
	}
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if l := active(); l != nil {
		l.Printf("%s took %v", name, d)
	}
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("myFunc")()
func LogEnterExit(name string) func() {
	l := active()
	if l == nil {
		return func() {}
	}
	l.Printf("-> %s", name)
	start := time.Now()
	return func() {
		l.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if l := active(); l != nil {
		l.Printf("%s: %T = %+v", name, v, v)
	}
}
