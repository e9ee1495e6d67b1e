// Package ptysession owns the PTY lifecycle for a spawned shell: starting
// the child process attached to a pseudo-terminal, resizing it, reading its
// output, and forwarding keyboard input. The daemon is the multiplexer
// itself here; there's no second process (like a real tmux binary) to proxy
// through.
package ptysession

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// Session is one PTY-backed child process.
type Session struct {
	mu   sync.RWMutex
	ptmx *os.File
	cmd  *exec.Cmd

	closeOnce sync.Once
}

// Size is a terminal's column/row dimensions.
type Size struct {
	Cols int
	Rows int
}

// Start spawns command (via "$SHELL -c", or "/bin/sh -c" when SHELL is
// unset) in dir with the given environment and
// initial size, attached to a new PTY. An empty env inherits the daemon's
// own environment, matching os/exec's default.
func Start(dir, command string, env []string, size Size) (*Session, error) {
	if size.Cols <= 0 || size.Rows <= 0 {
		return nil, fmt.Errorf("ptysession: invalid size %dx%d", size.Cols, size.Rows)
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, "-c", command)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = env
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(size.Cols), Rows: uint16(size.Rows)})
	if err != nil {
		return nil, fmt.Errorf("ptysession: start: %w", err)
	}

	return &Session{ptmx: ptmx, cmd: cmd}, nil
}

// Read reads from the PTY master. It returns io.EOF once the child exits
// and its output has been fully drained, exactly like reading any other
// *os.File past end-of-stream.
func (s *Session) Read(p []byte) (int, error) {
	s.mu.RLock()
	ptmx := s.ptmx
	s.mu.RUnlock()
	if ptmx == nil {
		return 0, fmt.Errorf("ptysession: not started")
	}
	return ptmx.Read(p)
}

// Write forwards p to the PTY master, i.e. as keyboard input to the child.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.RLock()
	ptmx := s.ptmx
	s.mu.RUnlock()
	if ptmx == nil {
		return 0, fmt.Errorf("ptysession: not started")
	}
	return ptmx.Write(p)
}

// Resize changes the PTY's reported window size.
func (s *Session) Resize(size Size) error {
	if size.Cols <= 0 || size.Rows <= 0 {
		return fmt.Errorf("ptysession: invalid size %dx%d", size.Cols, size.Rows)
	}
	s.mu.RLock()
	ptmx := s.ptmx
	s.mu.RUnlock()
	if ptmx == nil {
		return fmt.Errorf("ptysession: not started")
	}
	return pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(size.Cols), Rows: uint16(size.Rows)})
}

// PID reports the child process's PID, or 0 if it never started.
func (s *Session) PID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Close terminates the child process and closes the PTY master. It is safe
// to call more than once; only the first call has any effect.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		if s.ptmx != nil {
			err = s.ptmx.Close()
		}
		if s.cmd != nil {
			_, _ = s.cmd.Process.Wait()
		}
	})
	return err
}
