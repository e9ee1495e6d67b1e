package session

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/weftsh/weft/internal/config"
	"github.com/weftsh/weft/internal/ptysession"
	"github.com/weftsh/weft/internal/screen"
	"github.com/weftsh/weft/internal/shellintegration"
	"github.com/weftsh/weft/internal/state"
	"github.com/weftsh/weft/internal/vtparser"
)

const trackerActivityDebounce = 500 * time.Millisecond
const trackerRetryLogInterval = 15 * time.Second

// backend is anything that can drive a live terminal session: a local
// PTY-backed shell (*ptysession.Session) or a remote SSH one
// (*remotehost.Host).
type backend interface {
	io.Reader
	io.Writer
	Resize(ptysession.Size) error
	Close() error
}

// Tracker owns one session backend and the parsing pipeline fed from it:
// a vtparser.Parser dispatches into a shellintegration.Detector, which
// forwards to a screen.Screen. It fans output out to zero-or-one attached
// client via AttachClient/DetachClient/clientCh, where "signal" means
// a shell-integration prompt/command event rather than an AI-agent status
// file.
type Tracker struct {
	sessionID string
	st        state.StateStore

	pty    backend
	screen *screen.Screen
	parser *vtparser.Parser
	detect *shellintegration.Detector

	mu           sync.RWMutex
	clientCh     chan []byte
	lastActivity time.Time
	lastRetryLog time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewTracker builds a Tracker around an already-started local or remote
// session backend.
func NewTracker(sessionID string, st state.StateStore, pty backend, cols, rows int, opts config.ParserOptions) *Tracker {
	sc := screen.New(cols, rows)
	t := &Tracker{
		sessionID: sessionID,
		st:        st,
		pty:       pty,
		screen:    sc,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	det := shellintegration.New(sc)
	det.OnPromptState(func(state shellintegration.PromptState, exitCode int) {
		t.st.UpdateSessionLastSignal(t.sessionID, time.Now())
		_ = exitCode
		_ = state
	})
	t.detect = det

	var parserOpts []vtparser.Option
	var builderOpts []vtparser.DispatchBuilderOption
	if opts.OSCBelTerminator {
		parserOpts = append(parserOpts, vtparser.WithOSCBelTerminator())
	}
	if opts.Trace {
		logger := log.New(os.Stderr).WithPrefix("vtparser " + sessionID)
		parserOpts = append(parserOpts, vtparser.WithTraceLogger(logger))
		builderOpts = append(builderOpts, vtparser.WithTraceLogger(logger))
	}
	builderOpts = append(builderOpts,
		vtparser.WithMaxParameters(opts.MaxParameters),
		vtparser.WithMaxStringPayloadBytes(opts.MaxStringPayloadBytes),
	)
	t.parser = vtparser.NewParser(
		vtparser.NewDispatchBuilder(det, builderOpts...),
		parserOpts...,
	)

	return t
}

// Screen exposes the backing terminal model, e.g. for a snapshot on attach.
func (t *Tracker) Screen() *screen.Screen { return t.screen }

// Start launches the read loop in a background goroutine.
func (t *Tracker) Start() { go t.run() }

// Stop terminates the tracker, closing its PTY and waiting for the read
// loop to exit. An attached client channel stays open until DetachClient
// or a later AttachClient closes it.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		_ = t.pty.Close()
		<-t.doneCh
	})
}

// AttachClient registers an output channel for a single client. If a
// client is already attached, it is replaced and its channel closed.
func (t *Tracker) AttachClient() chan []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clientCh != nil {
		close(t.clientCh)
	}
	t.clientCh = make(chan []byte, 64)
	return t.clientCh
}

// DetachClient clears the client channel if it matches the currently
// registered one.
func (t *Tracker) DetachClient(ch chan []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.clientCh == ch {
		close(t.clientCh)
		t.clientCh = nil
	}
}

// SendInput writes input bytes to the underlying PTY.
func (t *Tracker) SendInput(data []byte) error {
	_, err := t.pty.Write(data)
	return err
}

// Resize updates the PTY and screen model dimensions.
func (t *Tracker) Resize(cols, rows int) error {
	if err := t.pty.Resize(ptysession.Size{Cols: cols, Rows: rows}); err != nil {
		return err
	}
	t.screen.Resize(cols, rows)
	return nil
}

func (t *Tracker) run() {
	defer close(t.doneCh)

	buf := make([]byte, 8192)
	for {
		n, err := t.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			t.parser.Feed(chunk)

			now := time.Now()
			t.mu.Lock()
			shouldUpdate := t.lastActivity.IsZero() || now.Sub(t.lastActivity) >= trackerActivityDebounce
			if shouldUpdate {
				t.lastActivity = now
			}
			clientCh := t.clientCh
			t.mu.Unlock()

			if shouldUpdate {
				t.st.UpdateSessionLastOutput(t.sessionID, now)
			}
			if clientCh != nil {
				select {
				case clientCh <- chunk:
				default:
				}
			}
		}

		if err != nil {
			if err != io.EOF && t.shouldLogRetry(time.Now()) {
				fmt.Printf("[tracker] %s read failed: %v\n", t.sessionID, err)
			}
			return
		}

		select {
		case <-t.stopCh:
			return
		default:
		}
	}
}

func (t *Tracker) shouldLogRetry(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRetryLog.IsZero() || now.Sub(t.lastRetryLog) >= trackerRetryLogInterval {
		t.lastRetryLog = now
		return true
	}
	return false
}
