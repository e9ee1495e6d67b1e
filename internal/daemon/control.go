package daemon

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/weftsh/weft/internal/config"
	"github.com/weftsh/weft/internal/session"
	"github.com/weftsh/weft/internal/wire"
)

const controlSocketName = "control.sock"

// controlSocketPath returns the path to the daemon's scriptable control
// socket under ~/.weft, the unix-domain counterpart to the dashboard's
// HTTP/WebSocket API.
func controlSocketPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, controlSocketName), nil
}

// controlServer accepts line-oriented commands over a unix socket and
// answers with the same %begin/%end/%error/%output framing wire.Parser
// understands, so a scripting client can drive the daemon without going
// through HTTP.
type controlServer struct {
	ln    net.Listener
	mgr   *session.Manager
	cmdID atomic.Int64
}

func startControlSocket(mgr *session.Manager) (*controlServer, error) {
	path, err := controlSocketPath()
	if err != nil {
		return nil, err
	}
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("daemon: listen on control socket: %w", err)
	}

	cs := &controlServer{ln: ln, mgr: mgr}
	go cs.serve()
	return cs, nil
}

func (cs *controlServer) serve() {
	for {
		conn, err := cs.ln.Accept()
		if err != nil {
			return
		}
		go cs.handleConn(conn)
	}
}

func (cs *controlServer) stop() {
	_ = cs.ln.Close()
	if path, err := controlSocketPath(); err == nil {
		_ = os.Remove(path)
	}
}

func (cs *controlServer) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cs.runCommand(conn, scanner.Text())
	}
}

func (cs *controlServer) runCommand(w net.Conn, line string) {
	id := int(cs.cmdID.Add(1))
	ts := time.Now().Unix()

	fmt.Fprintf(w, "%%begin %d %d 0\n", ts, id)

	lines, err := cs.dispatch(line)

	if err != nil {
		fmt.Fprintf(w, "%s\n", err.Error())
		fmt.Fprintf(w, "%%error %d %d 0\n", ts, id)
		return
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%s\n", l)
	}
	fmt.Fprintf(w, "%%end %d %d 0\n", ts, id)
}

func (cs *controlServer) dispatch(line string) ([]string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "list-sessions":
		var out []string
		for _, sess := range cs.mgr.GetAllSessions() {
			running := cs.mgr.IsRunning(sess.ID)
			out = append(out, fmt.Sprintf("%%output %%%s %s", sess.ID, wire.EscapeOutput([]byte(
				fmt.Sprintf("%s\t%s\t%t", sess.Profile, sess.Dir, running)))))
		}
		return out, nil

	case "capture":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: capture <session-id>")
		}
		tr, ok := cs.mgr.GetTracker(fields[1])
		if !ok {
			return nil, fmt.Errorf("session not found or not live: %s", fields[1])
		}
		var out []string
		for _, row := range tr.Screen().Snapshot() {
			out = append(out, fmt.Sprintf("%%output %%%s %s", fields[1], wire.EscapeOutput([]byte(row))))
		}
		return out, nil

	case "send-keys":
		if len(fields) < 3 {
			return nil, fmt.Errorf("usage: send-keys <session-id> <text>")
		}
		tr, ok := cs.mgr.GetTracker(fields[1])
		if !ok {
			return nil, fmt.Errorf("session not found or not live: %s", fields[1])
		}
		text := strings.Join(fields[2:], " ")
		if err := tr.SendInput([]byte(text)); err != nil {
			return nil, fmt.Errorf("send-keys: %w", err)
		}
		return nil, nil

	case "close":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: close <session-id>")
		}
		if err := cs.mgr.Close(fields[1]); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command: %s", fields[0])
	}
}
