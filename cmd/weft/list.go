package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weftsh/weft/internal/api/contracts"
	"github.com/weftsh/weft/pkg/cli"
)

// ListCommand implements the list command, flattened since there is no
// workspace grouping layer here (see DESIGN.md).
type ListCommand struct {
	client cli.DaemonClient
}

// NewListCommand creates a new list command.
func NewListCommand(client cli.DaemonClient) *ListCommand {
	return &ListCommand{client: client}
}

// Run executes the list command.
func (cmd *ListCommand) Run(args []string) error {
	var jsonOutput bool
	for _, arg := range args {
		if arg == "-json" || arg == "--json" {
			jsonOutput = true
		}
	}

	if !cmd.client.IsRunning() {
		return fmt.Errorf("daemon is not running. Start it with: weft start")
	}

	sessions, err := cmd.client.GetSessions()
	if err != nil {
		return fmt.Errorf("failed to get sessions: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(sessions)
	}
	return cmd.outputHuman(sessions)
}

func (cmd *ListCommand) outputHuman(sessions []contracts.SessionView) error {
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Println("Sessions:")
	for _, sess := range sessions {
		status := "stopped"
		if sess.Running {
			status = "running"
		}
		name := sess.Profile
		if name == "" {
			name = sess.Command
		}
		fmt.Printf("  [%s] %s (%s) - %s\n", sess.ID, name, sess.Dir, status)
	}
	return nil
}
