package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/weftsh/weft/internal/wire"
)

// ControlCommand sends one command line over the daemon's unix control
// socket and prints the framed response, for scripting (e.g. "weft control
// list-sessions" or "weft control capture weft-abc12345").
type ControlCommand struct{}

// NewControlCommand creates a new control command.
func NewControlCommand() *ControlCommand { return &ControlCommand{} }

func controlSocketPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".weft", "control.sock"), nil
}

// Run executes the control command.
func (cmd *ControlCommand) Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: weft control <command> [args...]")
	}

	path, err := controlSocketPath()
	if err != nil {
		return err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return fmt.Errorf("connect to control socket (is the daemon running?): %w", err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", strings.Join(args, " ")); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	parser := wire.NewParser(conn)
	go func() {
		if err := parser.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "control: %v\n", err)
		}
	}()

	for {
		select {
		case out, ok := <-parser.Output():
			if !ok {
				return nil
			}
			fmt.Println(out.Data)
		case resp, ok := <-parser.Responses():
			if !ok {
				return nil
			}
			if resp.Content != "" {
				fmt.Println(resp.Content)
			}
			if !resp.Success {
				return fmt.Errorf("command failed")
			}
			return nil
		}
	}
}
