package process

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// PTYStarter starts cmd attached to a new pseudo-terminal and returns the master side.
type PTYStarter func(cmd *exec.Cmd) (*os.File, error)

// StartPTY starts cmd with a PTY as its controlling terminal. Commands that
// insist on a terminal (browser remotes, tour scripts using tput) run
// unchanged, and their output is captured for the status log.
func StartPTY(cmd *exec.Cmd) (*os.File, error) {
	return pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 120})
}
