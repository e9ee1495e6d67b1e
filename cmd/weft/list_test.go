package main

import (
	"testing"

	"github.com/weftsh/weft/internal/api/contracts"
)

func TestListCommandRequiresRunningDaemon(t *testing.T) {
	cmd := NewListCommand(&fakeDaemonClient{running: false})
	if err := cmd.Run(nil); err == nil {
		t.Fatal("Run() with daemon not running should error")
	}
}

func TestListCommandOutputsSessions(t *testing.T) {
	client := &fakeDaemonClient{
		running: true,
		sessions: []contracts.SessionView{
			{ID: "weft-1", Profile: "shell", Dir: ".", Running: true},
		},
	}
	cmd := NewListCommand(client)
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("Run(): %v", err)
	}
}

func TestListCommandNoSessions(t *testing.T) {
	cmd := NewListCommand(&fakeDaemonClient{running: true})
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("Run(): %v", err)
	}
}
