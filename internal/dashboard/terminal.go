package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Terminal query response prefixes to filter from input - these are
// responses from xterm.js to queries the emulator sent, and should not be
// forwarded back into the PTY.
var inputFilterPrefixes = []string{
	"\x1b[?",   // DA1 response (e.g., \x1b[?1;2c)
	"\x1b[>",   // DA2 response (e.g., \x1b[>0;276;0c)
	"\x1b]10;", // OSC 10 foreground color response
	"\x1b]11;", // OSC 11 background color response
}

// isTerminalResponse checks if input is a terminal query response that
// shouldn't be sent.
func isTerminalResponse(data string) bool {
	for _, prefix := range inputFilterPrefixes {
		if strings.HasPrefix(data, prefix) {
			return true
		}
	}
	return false
}

// Sequences filtered out of outbound output so xterm.js handles
// scrolling/mouse locally instead of fighting the emulator's own state.
var filterSequences = [][]byte{
	[]byte("\x1b[?1000h"), // X11 mouse tracking
	[]byte("\x1b[?1002h"), // Button event tracking
	[]byte("\x1b[?1003h"), // Any event tracking
	[]byte("\x1b[?1006h"), // SGR extended mouse mode
	[]byte("\x1b[?1015h"), // urxvt mouse mode
	[]byte("\x1b[?1049h"), // Enable alternate screen
}

// filterMouseMode removes sequences that interfere with xterm.js
// scrollback.
func filterMouseMode(data []byte) []byte {
	for _, seq := range filterSequences {
		data = bytes.ReplaceAll(data, seq, nil)
	}
	return data
}

// WSMessage is a WebSocket message from the client.
type WSMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// WSOutputMessage is a WebSocket message to the client.
type WSOutputMessage struct {
	Type    string `json:"type"` // "full", "append"
	Content string `json:"content"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleTerminalWebSocket streams a session's live output to a websocket
// client: an initial full snapshot from the screen model, then live
// appended bytes as they arrive, sourced directly from the Tracker's own
// client channel rather than a second attached terminal.
func (s *Server) handleTerminalWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/ws/terminal/")
	if sessionID == "" {
		http.Error(w, "session ID is required", http.StatusBadRequest)
		return
	}

	tr, ok := s.mgr.GetTracker(sessionID)
	if !ok {
		http.Error(w, "session not running", http.StatusGone)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sendOutput := func(msgType, content string) error {
		msg := WSOutputMessage{Type: msgType, Content: content}
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	snapshot := strings.Join(tr.Screen().Snapshot(), "\n")
	if err := sendOutput("full", snapshot); err != nil {
		return
	}

	clientCh := tr.AttachClient()
	defer tr.DetachClient(clientCh)

	controlCh := make(chan WSMessage, 10)
	readErrCh := make(chan error, 1)
	go func() {
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				readErrCh <- err
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			var wsMsg WSMessage
			if err := json.Unmarshal(msg, &wsMsg); err == nil {
				controlCh <- wsMsg
			}
		}
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case chunk, ok := <-clientCh:
			if !ok {
				return
			}
			filtered := filterMouseMode(chunk)
			if len(filtered) > 0 {
				if err := sendOutput("append", string(filtered)); err != nil {
					return
				}
			}
		case <-readErrCh:
			return
		case <-ticker.C:
			if !s.mgr.IsRunning(sessionID) {
				sendOutput("append", "\n[session ended]")
				return
			}
		case msg := <-controlCh:
			s.handleControlMessage(tr, sessionID, msg)
		}
	}
}

func (s *Server) handleControlMessage(tr interface {
	SendInput([]byte) error
	Resize(int, int) error
}, sessionID string, msg WSMessage) {
	switch msg.Type {
	case "input":
		if isTerminalResponse(msg.Data) {
			return
		}
		if err := tr.SendInput([]byte(msg.Data)); err != nil {
			fmt.Printf("[dashboard] %s: error writing input: %v\n", sessionID, err)
		}
	case "resize":
		var resizeData struct {
			Cols int `json:"cols"`
			Rows int `json:"rows"`
		}
		if err := json.Unmarshal([]byte(msg.Data), &resizeData); err != nil {
			fmt.Printf("[dashboard] %s: error parsing resize data: %v\n", sessionID, err)
			return
		}
		if resizeData.Cols <= 0 || resizeData.Rows <= 0 {
			return
		}
		if err := tr.Resize(resizeData.Cols, resizeData.Rows); err != nil {
			fmt.Printf("[dashboard] %s: error resizing: %v\n", sessionID, err)
		}
	}
}
