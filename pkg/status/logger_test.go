package status

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestLoggerStatus(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewLogger(&out, &errOut, false)

	logger.Status("Touched.")
	logger.Status("Wait... %d", 3)

	want := "Touched.\nWait... 3\n"
	if out.String() != want {
		t.Errorf("expected status output %q but got %q", want, out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("expected no diagnostics but got %q", errOut.String())
	}
}

func TestLoggerDiagnostics(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewLogger(&out, &errOut, false)

	logger.Warn("skipping %s", "/dev/input/quanum")
	logger.Error("launch failed")
	logger.Debug("hidden")

	got := errOut.String()
	if !strings.Contains(got, "idlewatch: warning: skipping /dev/input/quanum\n") {
		t.Errorf("expected warning line, got %q", got)
	}
	if !strings.Contains(got, "idlewatch: error: launch failed\n") {
		t.Errorf("expected error line, got %q", got)
	}
	if strings.Contains(got, "hidden") {
		t.Error("debug output should be suppressed when debug is off")
	}
	if out.Len() != 0 {
		t.Errorf("diagnostics should not reach the status stream, got %q", out.String())
	}

	logger.SetDebug(true)
	logger.Debug("shown %d", 1)
	if !strings.Contains(errOut.String(), "idlewatch: shown 1\n") {
		t.Errorf("expected debug line after SetDebug(true), got %q", errOut.String())
	}
}

func TestLoggerNilWriter(t *testing.T) {
	logger := NewLogger(nil, nil, true)

	// Should not panic
	logger.Status("Touched.")
	logger.Warn("warn")
	logger.Debug("debug")
}

func TestLoggerConcurrentWrites(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(&out, &out, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Status("line %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 20 {
		t.Errorf("expected 20 intact lines but got %d", len(lines))
	}
}

func TestDebugEnabled(t *testing.T) {
	orig := os.Getenv(DebugEnvVar)
	defer func() {
		_ = os.Setenv(DebugEnvVar, orig)
	}()

	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"0", false},
		{"", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_ = os.Setenv(DebugEnvVar, tt.value)
			if got := DebugEnabled(); got != tt.want {
				t.Errorf("DebugEnabled() with %q = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
