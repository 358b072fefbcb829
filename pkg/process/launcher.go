// Package process launches external commands in the background.
package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/Veraticus/idlewatch/pkg/config"
	"github.com/Veraticus/idlewatch/pkg/interfaces"
)

// ErrAlreadyRunning is returned when single-flight launching is enabled and
// the previous command with the same name has not exited yet.
var ErrAlreadyRunning = errors.New("previous invocation still running")

// Launcher starts shell commands without waiting for them. A reaper
// goroutine per child collects the exit status so none are left as zombies.
type Launcher struct {
	shell         string
	usePTY        bool
	skipIfRunning bool
	stdout        io.Writer
	stderr        io.Writer
	logger        interfaces.Logger
	ptyStarter    PTYStarter

	mu      sync.Mutex
	running map[string]int
	wg      sync.WaitGroup
}

// Ensure Launcher implements CommandLauncher
var _ interfaces.CommandLauncher = (*Launcher)(nil)

// NewLauncher creates a launcher from the launch configuration
func NewLauncher(cfg *config.Config, logger interfaces.Logger) *Launcher {
	return &Launcher{
		shell:         cfg.Launch.Shell,
		usePTY:        cfg.Launch.UsePTY,
		skipIfRunning: cfg.Launch.SkipIfRunning,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		logger:        logger,
		ptyStarter:    StartPTY,
		running:       make(map[string]int),
	}
}

// SetOutput redirects the output of commands launched without a PTY.
// This is primarily useful for testing.
func (l *Launcher) SetOutput(stdout, stderr io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = stdout
	l.stderr = stderr
}

// SetPTYStarter replaces the PTY starter.
// This is primarily useful for testing.
func (l *Launcher) SetPTYStarter(starter PTYStarter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ptyStarter = starter
}

// Launch runs command through the shell in the background. name labels the
// invocation in logs and keys single-flight tracking; env is appended to
// the inherited environment. Launch returns once the child has started.
func (l *Launcher) Launch(name, command string, env []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.skipIfRunning && l.running[name] > 0 {
		return fmt.Errorf("%s: %w", name, ErrAlreadyRunning)
	}

	// #nosec G204 - The command is supplied by the operator on the command line or in config
	cmd := exec.Command(l.shell, "-c", command)
	cmd.Env = append(os.Environ(), env...)

	var output io.ReadCloser
	if l.usePTY {
		f, err := l.ptyStarter(cmd)
		if err != nil {
			return fmt.Errorf("failed to start %s command with PTY: %w", name, err)
		}
		output = f
	} else {
		cmd.Stdout = l.stdout
		cmd.Stderr = l.stderr
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to start %s command: %w", name, err)
		}
	}

	l.running[name]++
	l.wg.Add(1)
	go l.reap(name, cmd, output)

	l.logger.Debug("started %s command (pid %d): %s", name, cmd.Process.Pid, command)
	return nil
}

// Running reports how many invocations with the given name are still alive
func (l *Launcher) Running(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running[name]
}

// Wait blocks until every launched command has exited and been reaped and
// its PTY output, if any, has been relayed.
// The idle loop never calls it; it exists for shutdown and tests.
func (l *Launcher) Wait() {
	l.wg.Wait()
}

// reap waits for the child and records its exit. PTY output is relayed on
// its own goroutine: a background grandchild may hold the terminal open long
// after the shell has exited, and that must not delay the wait.
func (l *Launcher) reap(name string, cmd *exec.Cmd, output io.ReadCloser) {
	defer l.wg.Done()

	if output != nil {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.relay(name, output)
			_ = output.Close()
		}()
	}

	err := cmd.Wait()

	l.mu.Lock()
	l.running[name]--
	if l.running[name] <= 0 {
		delete(l.running, name)
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug("%s command exited: %v", name, err)
		return
	}
	l.logger.Debug("%s command finished", name)
}

// maxRelayLine caps one relayed line. Longer lines end the line-by-line
// relay and the rest of the output is discarded.
const maxRelayLine = 1024 * 1024

// relay copies output line by line into the status log until the PTY
// closes. It always reads to the end so the child never blocks on a full
// terminal buffer.
func (l *Launcher) relay(name string, output io.Reader) {
	scanner := bufio.NewScanner(output)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRelayLine)
	for scanner.Scan() {
		l.logger.Status("[%s] %s", name, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); errors.Is(err, bufio.ErrTooLong) {
		l.logger.Warn("%s command output line exceeds %d bytes; discarding the rest", name, maxRelayLine)
	}
	// Reading a PTY master after the child exits yields EIO; that is the normal end
	_, _ = io.Copy(io.Discard, output)
}
