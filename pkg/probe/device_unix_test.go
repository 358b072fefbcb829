//go:build unix

package probe

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/idlewatch/pkg/status"
	"github.com/Veraticus/idlewatch/pkg/types"
	"golang.org/x/sys/unix"
)

// newPipeDevice returns a non-blocking read end wrapped as a Device and the write end.
func newPipeDevice(t *testing.T) (*fdDevice, int) {
	t.Helper()
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		t.Fatalf("set non-blocking: %v", err)
	}
	t.Cleanup(func() { _ = unix.Close(fds[1]) })
	return &fdDevice{fd: fds[0], path: "pipe"}, fds[1]
}

func TestFdDeviceWouldBlock(t *testing.T) {
	dev, _ := newPipeDevice(t)
	defer func() { _ = dev.Close() }()

	outcome, err := drain(dev, make([]byte, ReadLimit))
	if err != nil {
		t.Errorf("would-block should not be reported as an error: %v", err)
	}
	if outcome != readEmpty {
		t.Error("empty pipe should read as empty")
	}

	_, rawErr := dev.Read(make([]byte, 16))
	if !IsWouldBlock(rawErr) {
		t.Errorf("expected EAGAIN from empty non-blocking pipe, got %v", rawErr)
	}
}

func TestFdDeviceWithData(t *testing.T) {
	dev, w := newPipeDevice(t)
	defer func() { _ = dev.Close() }()

	// One 24-byte input_event record
	if _, err := unix.Write(w, make([]byte, 24)); err != nil {
		t.Fatalf("write: %v", err)
	}

	outcome, err := drain(dev, make([]byte, ReadLimit))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != readData {
		t.Error("pipe with queued bytes should read as data")
	}
}

func TestOpenDevice(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing path", func(t *testing.T) {
		_, err := OpenDevice(filepath.Join(dir, "spacenavigator"))
		if err == nil {
			t.Fatal("expected error for missing device")
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})

	t.Run("readable file", func(t *testing.T) {
		path := filepath.Join(dir, "event0")
		if err := os.WriteFile(path, []byte("queued"), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}

		dev, err := OpenDevice(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = dev.Close() }()

		buf := make([]byte, ReadLimit)
		n, err := dev.Read(buf)
		if err != nil || n != len("queued") {
			t.Errorf("Read() = %d, %v; want %d, nil", n, err, len("queued"))
		}

		n, err = dev.Read(buf)
		if n != 0 || (err != nil && err != io.EOF) {
			t.Errorf("second Read() = %d, %v; want 0", n, err)
		}
	})
}

func TestProbeRealDevices(t *testing.T) {
	dir := t.TempDir()
	busy := filepath.Join(dir, "spacenavigator")
	quiet := filepath.Join(dir, "quanum")
	if err := os.WriteFile(busy, make([]byte, 48), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(quiet, nil, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := NewProber(status.NewLogger(io.Discard, io.Discard, false))
	p.SetSleeper(func(context.Context, time.Duration) error { return nil })

	tests := []struct {
		name  string
		paths []string
		want  types.ProbeResult
	}{
		{"busy device", []string{busy}, types.Touched},
		{"quiet device", []string{quiet}, types.NotTouched},
		{"missing then busy", []string{filepath.Join(dir, "gone"), busy}, types.Touched},
		{"quiet then busy", []string{quiet, busy}, types.Touched},
		{"nothing present", []string{filepath.Join(dir, "gone")}, types.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := p.Probe(context.Background(), tt.paths, time.Second)
			if got != tt.want {
				t.Errorf("Probe(%v) = %v, want %v", tt.paths, got, tt.want)
			}
		})
	}
}
