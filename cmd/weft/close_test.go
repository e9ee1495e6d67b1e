package main

import (
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

func TestCloseCommandRequiresSessionID(t *testing.T) {
	cmd := NewCloseCommand(&fakeDaemonClient{running: true})
	if err := cmd.Run(nil); err == nil {
		t.Fatal("Run() with no args should error")
	}
}

func TestCloseCommandRequiresRunningDaemon(t *testing.T) {
	cmd := NewCloseCommand(&fakeDaemonClient{running: false})
	if err := cmd.Run([]string{"weft-abc12345"}); err == nil {
		t.Fatal("Run() with daemon not running should error")
	}
}

func TestCloseCommandSucceeds(t *testing.T) {
	client := &fakeDaemonClient{running: true}
	cmd := NewCloseCommand(client)
	if err := cmd.Run([]string{"weft-abc12345"}); err != nil {
		t.Fatalf("Run(): %v", err)
	}
	if client.closedID != "weft-abc12345" {
		t.Errorf("closedID = %q, want weft-abc12345", client.closedID)
	}
}

func TestCloseCommandPropagatesDaemonError(t *testing.T) {
	client := &fakeDaemonClient{running: true, closeErr: errBoom}
	cmd := NewCloseCommand(client)
	if err := cmd.Run([]string{"weft-abc12345"}); err == nil {
		t.Fatal("Run() should surface the daemon error")
	}
}
