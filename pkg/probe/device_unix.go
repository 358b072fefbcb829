//go:build unix

package probe

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fdDevice reads a raw file descriptor. The Go runtime poller is bypassed
// so a read on an empty queue returns EAGAIN instead of parking.
type fdDevice struct {
	fd   int
	path string
}

// OpenDevice opens path read-only and switches it to non-blocking mode.
func OpenDevice(path string) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("set non-blocking on %s: %w", path, err)
	}

	return &fdDevice{fd: fd, path: path}, nil
}

func (d *fdDevice) Read(p []byte) (int, error) {
	n, err := unix.Read(d.fd, p)
	if n < 0 {
		n = 0
	}
	return n, err
}

func (d *fdDevice) Close() error {
	return unix.Close(d.fd)
}

// IsWouldBlock reports whether err means the device had nothing queued.
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
