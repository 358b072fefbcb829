// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import (
	"context"
	"time"

	"github.com/Veraticus/idlewatch/pkg/types"
)

// ActivityProber reports whether any input device produced data within a dwell window.
type ActivityProber interface {
	Probe(ctx context.Context, devicePaths []string, dwell time.Duration) (types.ProbeResult, error)
}

// CommandLauncher starts shell commands in the background without waiting for them.
type CommandLauncher interface {
	Launch(name, command string, env []string) error
}

// DisplayController powers the presentation display on and off.
type DisplayController interface {
	Wake() error
	Sleep() error
}

// Logger emits human-readable status and diagnostic lines.
type Logger interface {
	Status(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Debug(format string, args ...any)
}
