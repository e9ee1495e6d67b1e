package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/weftsh/weft/internal/screen"
	"github.com/weftsh/weft/internal/vtparser"
	"github.com/weftsh/weft/pkg/cli"
)

// AttachCommand implements the attach command: it streams a session's live
// output over the daemon's WebSocket endpoint and renders it locally, over
// the network control connection, through our own vtparser/screen pipeline
// rather than a second terminal emulator.
type AttachCommand struct {
	client cli.DaemonClient
}

// NewAttachCommand creates a new attach command.
func NewAttachCommand(client cli.DaemonClient) *AttachCommand {
	return &AttachCommand{client: client}
}

// Run executes the attach command.
func (cmd *AttachCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: weft attach <session-id>")
	}
	sessionID := args[0]

	if !cmd.client.IsRunning() {
		return fmt.Errorf("daemon is not running. Start it with: weft start")
	}

	cols, rows := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		cols, rows = w, h
	}

	conn, err := cmd.client.DialTerminal(context.Background(), sessionID)
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	defer conn.Close()

	m := newAttachModel(sessionID, conn, cols, rows)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	return nil
}

// wireMessage mirrors internal/dashboard.WSMessage/WSOutputMessage's JSON
// shape without importing that package: the control connection's wire
// format is a stable contract, not an implementation detail of dashboard.
type wireMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Data    string `json:"data,omitempty"`
}

type attachChunkMsg struct {
	msg wireMessage
	err error
}

type attachModel struct {
	sessionID string
	conn      *websocket.Conn
	msgCh     chan attachChunkMsg

	parser *vtparser.Parser
	scr    *screen.Screen

	cols, rows int
	status     string
	done       bool
}

func newAttachModel(sessionID string, conn *websocket.Conn, cols, rows int) *attachModel {
	sc := screen.New(cols, rows)
	m := &attachModel{
		sessionID: sessionID,
		conn:      conn,
		msgCh:     make(chan attachChunkMsg, 64),
		scr:       sc,
		cols:      cols,
		rows:      rows,
		status:    "connected",
	}
	m.parser = vtparser.NewParser(vtparser.NewDispatchBuilder(sc))
	return m
}

func (m *attachModel) Init() tea.Cmd {
	go m.readLoop()
	m.sendResize(m.cols, m.rows)
	return m.waitForChunk
}

func (m *attachModel) readLoop() {
	for {
		_, data, err := m.conn.ReadMessage()
		if err != nil {
			m.msgCh <- attachChunkMsg{err: err}
			return
		}
		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		m.msgCh <- attachChunkMsg{msg: msg}
	}
}

func (m *attachModel) waitForChunk() tea.Msg {
	return <-m.msgCh
}

func (m *attachModel) sendResize(cols, rows int) {
	data, _ := json.Marshal(struct {
		Cols int `json:"cols"`
		Rows int `json:"rows"`
	}{Cols: cols, Rows: rows})
	_ = m.conn.WriteJSON(wireMessage{Type: "resize", Data: string(data)})
}

func (m *attachModel) sendInput(data []byte) {
	_ = m.conn.WriteJSON(wireMessage{Type: "input", Data: string(data)})
}

func (m *attachModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.scr.Resize(msg.Width, msg.Height)
		m.sendResize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+]" {
			m.done = true
			return m, tea.Quit
		}
		if data := keyToInputBytes(msg); len(data) > 0 {
			m.sendInput(data)
		}
		return m, nil

	case attachChunkMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("disconnected: %v", msg.err)
			m.done = true
			return m, tea.Quit
		}
		m.parser.Feed([]byte(msg.msg.Content))
		return m, m.waitForChunk
	}
	return m, nil
}

func (m *attachModel) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Render(fmt.Sprintf("weft attach %s — %s  (ctrl+] to detach)", m.sessionID, m.status))
	body := strings.Join(m.scr.Snapshot(), "\n")
	return header + "\n" + body
}

// keyToInputBytes maps a bubbletea key event to the raw bytes written to
// the remote PTY. Grounded on the input mapping used by the example pack's
// bubbletea-backed terminal panes (charmbracelet/bubbletea KeyMsg -> ANSI
// byte sequences), trimmed to what a shell expects over stdin.
func keyToInputBytes(k tea.KeyMsg) []byte {
	if k.Type == tea.KeyRunes && len(k.Runes) > 0 {
		return []byte(string(k.Runes))
	}
	switch k.Type {
	case tea.KeySpace:
		return []byte(" ")
	case tea.KeyEnter:
		return []byte("\r")
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyTab:
		return []byte("\t")
	case tea.KeyEsc:
		return []byte{0x1b}
	case tea.KeyCtrlC:
		return []byte{0x03}
	case tea.KeyCtrlD:
		return []byte{0x04}
	case tea.KeyCtrlL:
		return []byte{0x0c}
	case tea.KeyCtrlZ:
		return []byte{0x1a}
	case tea.KeyUp:
		return []byte("\x1b[A")
	case tea.KeyDown:
		return []byte("\x1b[B")
	case tea.KeyRight:
		return []byte("\x1b[C")
	case tea.KeyLeft:
		return []byte("\x1b[D")
	case tea.KeyHome:
		return []byte("\x1b[H")
	case tea.KeyEnd:
		return []byte("\x1b[F")
	case tea.KeyPgUp:
		return []byte("\x1b[5~")
	case tea.KeyPgDown:
		return []byte("\x1b[6~")
	}
	return nil
}
