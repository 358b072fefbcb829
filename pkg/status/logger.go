// Package status writes the per-cycle status lines and diagnostics.
package status

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Veraticus/idlewatch/pkg/interfaces"
)

// DebugEnvVar enables debug output when set to "1" or "true".
const DebugEnvVar = "IDLEWATCH_DEBUG"

const prefix = "idlewatch: "

// Logger writes status lines to one stream and diagnostics to another.
// It is safe for concurrent use; launched commands relay their output
// through it from background goroutines.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	debug  bool
}

// Ensure Logger implements interfaces.Logger
var _ interfaces.Logger = (*Logger)(nil)

// NewLogger creates a logger writing status to out and diagnostics to errOut
func NewLogger(out, errOut io.Writer, debug bool) *Logger {
	return &Logger{
		out:    out,
		errOut: errOut,
		debug:  debug,
	}
}

// NewStdLogger creates a logger on stdout/stderr with debug taken from the environment
func NewStdLogger() *Logger {
	return NewLogger(os.Stdout, os.Stderr, DebugEnabled())
}

// DebugEnabled reports whether IDLEWATCH_DEBUG asks for debug output
func DebugEnabled() bool {
	switch strings.ToLower(os.Getenv(DebugEnvVar)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// SetDebug toggles debug output
func (l *Logger) SetDebug(debug bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = debug
}

// Status prints an unprefixed status line such as "Touched." or "Wait... 1"
func (l *Logger) Status(format string, args ...any) {
	l.write(l.out, "", format, args...)
}

// Warn prints a recoverable problem
func (l *Logger) Warn(format string, args ...any) {
	l.write(l.errOut, prefix+"warning: ", format, args...)
}

// Error prints a failure that did not stop the loop
func (l *Logger) Error(format string, args ...any) {
	l.write(l.errOut, prefix+"error: ", format, args...)
}

// Debug prints only when debug output is enabled
func (l *Logger) Debug(format string, args ...any) {
	l.mu.Lock()
	enabled := l.debug
	l.mu.Unlock()
	if !enabled {
		return
	}
	l.write(l.errOut, prefix, format, args...)
}

func (l *Logger) write(w io.Writer, lead, format string, args ...any) {
	if w == nil {
		return
	}
	line := lead + fmt.Sprintf(format, args...)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Best effort - a closed stdout must not stop idle detection
	_, _ = io.WriteString(w, line)
}
