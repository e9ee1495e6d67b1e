package remotehost

import (
	"crypto/rand"
	"crypto/rsa"
	"net"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/weftsh/weft/internal/ptysession"
)

// startEchoServer starts a minimal SSH server accepting password auth and
// echoing stdin back to stdout on any "shell" request, grounded on the
// pack's own SSH-target test harness (golang.org/x/crypto/ssh's
// ServerConfig + NewServerConn + channel-accept loop).
func startEchoServer(t *testing.T, user, pass string) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		t.Fatalf("signer from key: %v", err)
	}

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, p []byte) (*ssh.Permissions, error) {
			if c.User() == user && string(p) == pass {
				return nil, nil
			}
			return nil, ssh.ErrNoAuth
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, cfg)
		}
	}()

	return ln.Addr().String()
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	defer conn.Close()
	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, chReqs, err := newChan.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range chReqs {
				switch req.Type {
				case "pty-req", "shell", "window-change":
					if req.WantReply {
						req.Reply(true, nil)
					}
					if req.Type == "shell" {
						go func() {
							buf := make([]byte, 1024)
							for {
								n, err := ch.Read(buf)
								if n > 0 {
									ch.Write(buf[:n])
								}
								if err != nil {
									return
								}
							}
						}()
					}
				default:
					if req.WantReply {
						req.Reply(false, nil)
					}
				}
			}
		}()
	}
}

func TestDialRejectsNoAuthMethods(t *testing.T) {
	if _, err := Dial(Config{Addr: "127.0.0.1:1"}, 80, 24); err == nil {
		t.Fatal("Dial should fail with no auth methods configured")
	}
}

func TestDialAndEchoRoundTrip(t *testing.T) {
	addr := startEchoServer(t, "tester", "secret")

	h, err := Dial(Config{Addr: addr, User: "tester", Password: "secret"}, 80, 24)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer h.Close()

	if _, err := h.Write([]byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 16)
	done := make(chan struct{})
	var n int
	var readErr error
	go func() {
		n, readErr = h.Read(buf)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for echoed bytes")
	}
	if readErr != nil {
		t.Fatalf("Read: %v", readErr)
	}
	if string(buf[:n]) != "ping" {
		t.Fatalf("got %q, want %q", buf[:n], "ping")
	}
}

func TestDialFailsWithWrongPassword(t *testing.T) {
	addr := startEchoServer(t, "tester", "secret")
	if _, err := Dial(Config{Addr: addr, User: "tester", Password: "wrong"}, 80, 24); err == nil {
		t.Fatal("Dial should fail with an incorrect password")
	}
}

func TestResize(t *testing.T) {
	addr := startEchoServer(t, "tester", "secret")
	h, err := Dial(Config{Addr: addr, User: "tester", Password: "secret"}, 80, 24)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer h.Close()

	if err := h.Resize(ptysession.Size{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("Resize: %v", err)
	}
}
