// Package state persists the daemon's session, window, and remote-host
// bookkeeping to a JSON file under ~/.weft, through a StateStore interface
// giving session/window/remote-host CRUD plus a single Save.
package state

import "time"

// Session is one running (or recently closed) PTY-backed shell.
type Session struct {
	ID         string    `json:"id"`
	WindowID   string    `json:"window_id"`
	Profile    string    `json:"profile"`
	Dir        string    `json:"dir"`
	Command    string    `json:"command"`
	PID        int       `json:"pid"`
	CreatedAt  time.Time `json:"created_at"`
	LastOutput time.Time `json:"last_output"`
	LastSignal time.Time `json:"last_signal"`
	Closed     bool      `json:"closed"`
}

// Window is a named grouping of sessions. It carries no git/workspace
// semantics.
type Window struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RemoteHost is an SSH target sessions may run on.
type RemoteHost struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Status   string `json:"status"`
	FlavorID string `json:"flavor_id"`
}

// StateStore defines the interface for state persistence.
type StateStore interface {
	// Session operations
	GetSessions() []Session
	GetSession(id string) (Session, bool)
	AddSession(sess Session) error
	UpdateSession(sess Session) error
	RemoveSession(id string) error
	UpdateSessionLastOutput(sessionID string, t time.Time)
	UpdateSessionLastSignal(sessionID string, t time.Time)

	// Window operations
	GetWindows() []Window
	GetWindow(id string) (Window, bool)
	AddWindow(w Window) error
	RemoveWindow(id string) error
	GetSessionsByWindowID(windowID string) []Session

	// Remote host operations
	GetRemoteHosts() []RemoteHost
	GetRemoteHost(id string) (RemoteHost, bool)
	GetRemoteHostByHostname(hostname string) (RemoteHost, bool)
	AddRemoteHost(rh RemoteHost) error
	UpdateRemoteHostStatus(id, status string) error
	RemoveRemoteHost(id string) error

	// Persistence
	Save() error
}

// Ensure State implements StateStore at compile time.
var _ StateStore = (*State)(nil)
