// Package dashboard is the daemon's HTTP/WebSocket frontend: a small JSON
// API for listing and opening sessions, and a WebSocket endpoint that
// streams a session's live terminal output and accepts keyboard input,
// sourced from ptysession/screen directly rather than a second attached
// terminal.
package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/weftsh/weft/internal/api/contracts"
	"github.com/weftsh/weft/internal/config"
	"github.com/weftsh/weft/internal/session"
	"github.com/weftsh/weft/internal/state"
)

// Server is the dashboard's HTTP handler.
type Server struct {
	cfg *config.Config
	st  *state.State
	mgr *session.Manager

	mux *http.ServeMux
}

// NewServer builds a dashboard Server bound to the given config, state
// store, and session manager.
func NewServer(cfg *config.Config, st *state.State, mgr *session.Manager) *Server {
	s := &Server{cfg: cfg, st: st, mgr: mgr}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/open", s.handleOpenSession)
	mux.HandleFunc("/api/sessions/close", s.handleCloseSession)
	mux.HandleFunc("/ws/terminal/", s.handleTerminalWebSocket)
	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, contracts.ErrorResponse{Error: err.Error()})
}

func (s *Server) toView(sess state.Session) contracts.SessionView {
	return contracts.SessionView{
		ID:      sess.ID,
		Profile: sess.Profile,
		Dir:     sess.Dir,
		Command: sess.Command,
		PID:     sess.PID,
		Running: s.mgr.IsRunning(sess.ID),
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessions := s.mgr.GetAllSessions()
	out := make([]contracts.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, s.toView(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req contracts.OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := s.mgr.Open(req.Profile, req.Dir, req.Command)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.toView(*sess))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req contracts.CloseSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.mgr.Close(req.ID); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, contracts.CloseSessionResponse{Status: "closed"})
}
