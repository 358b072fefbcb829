//go:build !unix

package probe

import (
	"errors"
	"fmt"
)

var errUnsupported = errors.New("input device probing is not supported on this platform")

// OpenDevice always fails on platforms without unix character devices.
func OpenDevice(path string) (Device, error) {
	return nil, fmt.Errorf("open %s: %w", path, errUnsupported)
}

// IsWouldBlock reports whether err means the device had nothing queued.
func IsWouldBlock(err error) bool {
	return false
}
