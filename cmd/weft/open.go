package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/weftsh/weft/internal/api/contracts"
	"github.com/weftsh/weft/pkg/cli"
)

// OpenCommand implements the open command: start a new session from a
// configured profile or an explicit command, with no workspace/repo/branch
// resolution (see DESIGN.md) in favor of a plain directory argument.
type OpenCommand struct {
	client cli.DaemonClient
}

// NewOpenCommand creates a new open command.
func NewOpenCommand(client cli.DaemonClient) *OpenCommand {
	return &OpenCommand{client: client}
}

// Run executes the open command.
func (cmd *OpenCommand) Run(args []string) error {
	var (
		profileFlag string
		dirFlag     string
		commandFlag string
		jsonOutput  bool
	)

	fs := flag.NewFlagSet("open", flag.ExitOnError)
	fs.StringVar(&profileFlag, "p", "", "Profile name")
	fs.StringVar(&profileFlag, "profile", "", "Profile name")
	fs.StringVar(&dirFlag, "d", "", "Working directory")
	fs.StringVar(&dirFlag, "dir", "", "Working directory")
	fs.StringVar(&commandFlag, "c", "", "Explicit command, overriding the profile's")
	fs.StringVar(&commandFlag, "command", "", "Explicit command, overriding the profile's")
	fs.BoolVar(&jsonOutput, "json", false, "JSON output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if !cmd.client.IsRunning() {
		return fmt.Errorf("daemon is not running. Start it with: weft start")
	}

	req := contracts.OpenSessionRequest{Profile: profileFlag, Dir: dirFlag, Command: commandFlag}
	view, err := cmd.client.OpenSession(context.Background(), req)
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	}

	fmt.Printf("Session: %s\n", view.ID)
	fmt.Printf("  Dir:     %s\n", view.Dir)
	fmt.Printf("  Command: %s\n", view.Command)
	fmt.Printf("  Attach:  weft attach %s\n", view.ID)
	return nil
}
