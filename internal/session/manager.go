// Package session owns the live, in-memory half of every running shell:
// one Tracker per session, wiring a ptysession.Session through vtparser,
// shellintegration, and screen, plus the Manager that opens and closes
// them.
package session

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/weftsh/weft/internal/config"
	"github.com/weftsh/weft/internal/ptysession"
	"github.com/weftsh/weft/internal/remotehost"
	"github.com/weftsh/weft/internal/state"
)

const defaultCols = 80
const defaultRows = 24

// Manager owns every live Tracker and mirrors their lifecycle into
// state.StateStore.
type Manager struct {
	cfg *config.Config
	st  state.StateStore

	mu       sync.RWMutex
	trackers map[string]*Tracker
}

// New creates a session manager.
func New(cfg *config.Config, st state.StateStore) *Manager {
	return &Manager{
		cfg:      cfg,
		st:       st,
		trackers: make(map[string]*Tracker),
	}
}

// Open starts a new session from a named profile (or an explicit command,
// if profile is empty) in dir. There is no workspace/git-worktree layer
// here (see DESIGN.md for the dropped internal/workspace), so Open
// operates directly on a directory. If the resolved profile names a
// RemoteHost, the session runs over SSH instead of a local PTY.
func (m *Manager) Open(profile, dir, command string) (*state.Session, error) {
	remoteHostName := ""
	if profile != "" {
		p, found := m.cfg.FindProfile(profile)
		if !found {
			return nil, fmt.Errorf("session: profile not found: %s", profile)
		}
		if command == "" {
			command = p.Command
		}
		if dir == "" {
			dir = p.Dir
		}
		remoteHostName = p.RemoteHost
	}
	if dir == "" {
		dir = "."
	}

	sessionID := fmt.Sprintf("weft-%s", uuid.New().String()[:8])

	back, pid, err := m.startBackend(remoteHostName, dir, command)
	if err != nil {
		return nil, err
	}

	sess := state.Session{
		ID:        sessionID,
		Profile:   profile,
		Dir:       dir,
		Command:   command,
		PID:       pid,
		CreatedAt: time.Now(),
	}

	if err := m.st.AddSession(sess); err != nil {
		_ = back.Close()
		return nil, fmt.Errorf("session: add to state: %w", err)
	}
	if err := m.st.Save(); err != nil {
		_ = back.Close()
		_ = m.st.RemoveSession(sessionID)
		return nil, fmt.Errorf("session: save state: %w", err)
	}

	tr := NewTracker(sessionID, m.st, back, defaultCols, defaultRows, m.cfg.GetParserOptions())
	tr.Start()

	m.mu.Lock()
	m.trackers[sessionID] = tr
	m.mu.Unlock()

	return &sess, nil
}

// startBackend starts either a local PTY or, when remoteHostName is set, a
// remote SSH shell, returning it as the common backend interface plus a
// PID (0 for remote backends, which have none local to this process).
func (m *Manager) startBackend(remoteHostName, dir, command string) (backend, int, error) {
	if remoteHostName == "" {
		pty, err := ptysession.Start(dir, command, nil, ptysession.Size{Cols: defaultCols, Rows: defaultRows})
		if err != nil {
			return nil, 0, fmt.Errorf("session: start pty: %w", err)
		}
		return pty, pty.PID(), nil
	}

	hostCfg, found := m.cfg.FindRemoteHost(remoteHostName)
	if !found {
		return nil, 0, fmt.Errorf("session: remote host not found: %s", remoteHostName)
	}
	rc := remotehost.Config{Addr: hostCfg.Addr, User: hostCfg.User, Password: hostCfg.Password}
	if hostCfg.PrivateKeyPath != "" {
		signer, err := remotehost.ParsePrivateKeyFile(hostCfg.PrivateKeyPath)
		if err != nil {
			return nil, 0, err
		}
		rc.PrivateKey = signer
	}
	host, err := remotehost.Dial(rc, defaultCols, defaultRows)
	if err != nil {
		return nil, 0, fmt.Errorf("session: dial remote host %s: %w", remoteHostName, err)
	}
	if err := host.SendInitial(dir, command); err != nil {
		_ = host.Close()
		return nil, 0, fmt.Errorf("session: initial remote command: %w", err)
	}
	return host, 0, nil
}

// Close stops a session's tracker and removes it from state.
func (m *Manager) Close(sessionID string) error {
	if _, found := m.st.GetSession(sessionID); !found {
		return fmt.Errorf("session: not found: %s", sessionID)
	}

	m.mu.Lock()
	tr, ok := m.trackers[sessionID]
	delete(m.trackers, sessionID)
	m.mu.Unlock()

	if ok {
		tr.Stop()
	}

	if err := m.st.RemoveSession(sessionID); err != nil {
		return fmt.Errorf("session: remove from state: %w", err)
	}
	return m.st.Save()
}

// IsRunning checks whether a session's shell process is still alive.
func (m *Manager) IsRunning(sessionID string) bool {
	sess, found := m.st.GetSession(sessionID)
	if !found {
		return false
	}
	if sess.PID == 0 {
		return false
	}
	process, err := os.FindProcess(sess.PID)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// GetTracker returns the live Tracker for a running session, if any.
func (m *Manager) GetTracker(sessionID string) (*Tracker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tr, ok := m.trackers[sessionID]
	return tr, ok
}

// GetAllSessions returns all known sessions.
func (m *Manager) GetAllSessions() []state.Session {
	return m.st.GetSessions()
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(sessionID string) (*state.Session, error) {
	sess, found := m.st.GetSession(sessionID)
	if !found {
		return nil, fmt.Errorf("session: not found: %s", sessionID)
	}
	return &sess, nil
}
