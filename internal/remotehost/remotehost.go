// Package remotehost dials a configured SSH target and bridges its remote
// shell through the same io.ReadWriter shape ptysession.Session exposes,
// so session.Tracker can drive a remote session identically to a local
// PTY. Grounded on golang.org/x/crypto/ssh usage in the example pack's
// bastion-proxy TargetClient (internal/proxy/client.go): same
// ssh.ClientConfig construction, same dial-then-session lifecycle.
package remotehost

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/weftsh/weft/internal/ptysession"
	"github.com/weftsh/weft/pkg/shellutil"
)

const dialTimeout = 10 * time.Second

// Config describes how to reach and authenticate against a remote host.
type Config struct {
	Addr       string // "host:22"
	User       string
	Password   string     // optional, dev/testing only
	PrivateKey ssh.Signer // optional
}

// Host is one live SSH connection carrying a single remote shell session.
type Host struct {
	client  *ssh.Client
	session *ssh.Session

	stdin  io.WriteCloser
	stdout io.Reader
}

// ParsePrivateKeyFile loads and parses an unencrypted PEM private key for
// use as Config.PrivateKey.
func ParsePrivateKeyFile(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("remotehost: read key %s: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("remotehost: parse key %s: %w", path, err)
	}
	return signer, nil
}

func buildAuthMethods(cfg Config) []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if cfg.PrivateKey != nil {
		methods = append(methods, ssh.PublicKeys(cfg.PrivateKey))
	}
	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}
	return methods
}

// Dial connects to the remote host and starts an interactive shell sized
// to cols x rows.
func Dial(cfg Config, cols, rows int) (*Host, error) {
	methods := buildAuthMethods(cfg)
	if len(methods) == 0 {
		return nil, fmt.Errorf("remotehost: no authentication method configured for %s", cfg.Addr)
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", cfg.Addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("remotehost: dial %s: %w", cfg.Addr, err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("remotehost: new session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm-256color", rows, cols, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("remotehost: request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("remotehost: stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("remotehost: stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("remotehost: start shell: %w", err)
	}

	return &Host{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}

// Read implements io.Reader, reading from the remote shell's stdout.
func (h *Host) Read(p []byte) (int, error) { return h.stdout.Read(p) }

// Write implements io.Writer, forwarding to the remote shell's stdin.
func (h *Host) Write(p []byte) (int, error) { return h.stdin.Write(p) }

// SendInitial writes a cd-then-exec line to the remote shell's stdin so a
// freshly dialed Host starts in the right directory and optionally runs an
// explicit command, the remote-shell equivalent of ptysession.Start's
// "sh -c" invocation. A no-op if both dir and command are empty.
func (h *Host) SendInitial(dir, command string) error {
	if dir == "" && command == "" {
		return nil
	}
	var b strings.Builder
	if dir != "" {
		b.WriteString("cd ")
		b.WriteString(shellutil.Quote(dir))
		b.WriteString(" && ")
	}
	if command != "" {
		b.WriteString(command)
	} else {
		b.WriteString("true")
	}
	b.WriteString("\n")
	_, err := h.Write([]byte(b.String()))
	return err
}

// Resize changes the remote PTY's reported window size, matching
// ptysession.Session's Resize signature so session.Tracker can treat a
// local and a remote backend identically.
func (h *Host) Resize(size ptysession.Size) error {
	return h.session.WindowChange(size.Rows, size.Cols)
}

// Close terminates the remote session and the underlying SSH connection.
func (h *Host) Close() error {
	err := h.session.Close()
	if cerr := h.client.Close(); err == nil {
		err = cerr
	}
	return err
}
