package main

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/weftsh/weft/internal/api/contracts"
)

// fakeDaemonClient is a test double for cli.DaemonClient.
type fakeDaemonClient struct {
	running     bool
	sessions    []contracts.SessionView
	sessionsErr error
	openResult  contracts.SessionView
	openErr     error
	closeErr    error
	closedID    string
}

func (f *fakeDaemonClient) IsRunning() bool { return f.running }

func (f *fakeDaemonClient) GetSessions() ([]contracts.SessionView, error) {
	return f.sessions, f.sessionsErr
}

func (f *fakeDaemonClient) OpenSession(ctx context.Context, req contracts.OpenSessionRequest) (contracts.SessionView, error) {
	return f.openResult, f.openErr
}

func (f *fakeDaemonClient) CloseSession(ctx context.Context, sessionID string) error {
	f.closedID = sessionID
	return f.closeErr
}

func (f *fakeDaemonClient) DialTerminal(ctx context.Context, sessionID string) (*websocket.Conn, error) {
	return nil, nil
}
