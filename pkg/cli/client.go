// Package cli is a thin client for the daemon's control HTTP/WebSocket API,
// used by cmd/weft, built directly against internal/dashboard's actual
// endpoints and internal/api/contracts's wire types.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weftsh/weft/internal/api/contracts"
)

const defaultDaemonURL = "http://127.0.0.1:7337"

// GetDefaultURL returns the daemon's base URL: the WEFT_DAEMON_URL
// environment variable if set, otherwise the default loopback address the
// daemon binds by default.
func GetDefaultURL() string {
	if url := os.Getenv("WEFT_DAEMON_URL"); url != "" {
		return url
	}
	return defaultDaemonURL
}

// DaemonClient talks to a running daemon's dashboard API.
type DaemonClient interface {
	IsRunning() bool
	GetSessions() ([]contracts.SessionView, error)
	OpenSession(ctx context.Context, req contracts.OpenSessionRequest) (contracts.SessionView, error)
	CloseSession(ctx context.Context, sessionID string) error
	DialTerminal(ctx context.Context, sessionID string) (*websocket.Conn, error)
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewDaemonClient builds a DaemonClient talking to the daemon at baseURL.
func NewDaemonClient(baseURL string) DaemonClient {
	return &httpClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

// IsRunning performs a lightweight GET against the sessions endpoint to
// confirm the daemon is reachable.
func (c *httpClient) IsRunning() bool {
	resp, err := c.http.Get(c.baseURL + "/api/sessions")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *httpClient) GetSessions() ([]contracts.SessionView, error) {
	resp, err := c.http.Get(c.baseURL + "/api/sessions")
	if err != nil {
		return nil, fmt.Errorf("cli: get sessions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var sessions []contracts.SessionView
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("cli: decode sessions: %w", err)
	}
	return sessions, nil
}

func (c *httpClient) OpenSession(ctx context.Context, req contracts.OpenSessionRequest) (contracts.SessionView, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return contracts.SessionView{}, fmt.Errorf("cli: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sessions/open", bytes.NewReader(body))
	if err != nil {
		return contracts.SessionView{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return contracts.SessionView{}, fmt.Errorf("cli: open session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return contracts.SessionView{}, decodeError(resp)
	}

	var view contracts.SessionView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return contracts.SessionView{}, fmt.Errorf("cli: decode session: %w", err)
	}
	return view, nil
}

func (c *httpClient) CloseSession(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(contracts.CloseSessionRequest{ID: sessionID})
	if err != nil {
		return fmt.Errorf("cli: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sessions/close", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("cli: close session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// DialTerminal opens the WebSocket stream for a session's live terminal
// output and input, used by the attach command.
func (c *httpClient) DialTerminal(ctx context.Context, sessionID string) (*websocket.Conn, error) {
	wsURL, err := toWebSocketURL(c.baseURL)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL+"/ws/terminal/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("cli: dial terminal: %w", err)
	}
	return conn, nil
}

func toWebSocketURL(httpURL string) (string, error) {
	switch {
	case len(httpURL) >= 7 && httpURL[:7] == "http://":
		return "ws://" + httpURL[7:], nil
	case len(httpURL) >= 8 && httpURL[:8] == "https://":
		return "wss://" + httpURL[8:], nil
	default:
		return "", fmt.Errorf("cli: unrecognized daemon URL scheme: %s", httpURL)
	}
}

func decodeError(resp *http.Response) error {
	var errResp contracts.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("cli: daemon returned %s", resp.Status)
	}
	return fmt.Errorf("cli: %s", errResp.Error)
}
