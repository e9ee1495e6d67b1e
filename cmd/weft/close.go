package main

import (
	"context"
	"fmt"

	"github.com/weftsh/weft/pkg/cli"
)

// CloseCommand implements the close command: it tears down a running
// session and removes it from daemon state.
type CloseCommand struct {
	client cli.DaemonClient
}

// NewCloseCommand creates a new close command.
func NewCloseCommand(client cli.DaemonClient) *CloseCommand {
	return &CloseCommand{client: client}
}

// Run executes the close command.
func (cmd *CloseCommand) Run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: weft close <session-id>")
	}
	sessionID := args[0]

	if !cmd.client.IsRunning() {
		return fmt.Errorf("daemon is not running. Start it with: weft start")
	}

	if err := cmd.client.CloseSession(context.Background(), sessionID); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	fmt.Printf("Session %s closed.\n", sessionID)
	return nil
}
