package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/weftsh/weft/internal/config"
	"github.com/weftsh/weft/internal/daemon"
	"github.com/weftsh/weft/internal/update"
	"github.com/weftsh/weft/internal/version"
	"github.com/weftsh/weft/pkg/cli"
)

// parseDaemonRunFlags parses the flags for daemon-run command. Returns
// (devProxy, background, devMode). --dev-mode implies --dev-proxy.
func parseDaemonRunFlags(args []string) (devProxy bool, background bool, devMode bool) {
	for _, arg := range args {
		switch arg {
		case "--dev-proxy":
			devProxy = true
		case "--background":
			background = true
		case "--dev-mode":
			devMode = true
			devProxy = true
		}
	}
	return
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start", "daemon-run":
		configOk, err := config.EnsureExists()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking config: %v\n", err)
			os.Exit(1)
		}
		if !configOk {
			os.Exit(1)
		}

		if err := daemon.ValidateReadyToRun(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if command == "start" {
			if err := daemon.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("weft daemon started")
		} else {
			devProxy, background, devMode := parseDaemonRunFlags(os.Args[2:])
			if err := daemon.Run(background, devProxy, devMode); err != nil {
				if errors.Is(err, daemon.ErrDevRestart) {
					os.Exit(42)
				}
				fmt.Fprintf(os.Stderr, "Daemon error: %v\n", err)
				os.Exit(1)
			}
		}

	case "stop":
		if err := daemon.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("weft daemon stopped")

	case "status":
		running, url, _, err := daemon.Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if running {
			fmt.Println("weft daemon is running")
			fmt.Printf("Dashboard: %s\n", url)
		} else {
			fmt.Println("weft daemon is not running")
			os.Exit(1)
		}

	case "version", "-v", "--version":
		fmt.Printf("weft v%s\n", version.Version)

	case "update":
		if err := update.Update(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "configure":
		if err := RunConfigWizard(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	case "open":
		client := cli.NewDaemonClient(cli.GetDefaultURL())
		cmd := NewOpenCommand(client)
		if err := cmd.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "list":
		client := cli.NewDaemonClient(cli.GetDefaultURL())
		cmd := NewListCommand(client)
		if err := cmd.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "attach":
		client := cli.NewDaemonClient(cli.GetDefaultURL())
		cmd := NewAttachCommand(client)
		if err := cmd.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "close":
		client := cli.NewDaemonClient(cli.GetDefaultURL())
		cmd := NewCloseCommand(client)
		if err := cmd.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "control":
		cmd := NewControlCommand()
		if err := cmd.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("weft - a terminal multiplexer daemon")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  weft <command>")
	fmt.Println()
	fmt.Println("Daemon Commands:")
	fmt.Println("  start       Start the daemon in background")
	fmt.Println("  stop        Stop the daemon")
	fmt.Println("  status      Show daemon status and dashboard URL")
	fmt.Println("  daemon-run  Run the daemon in foreground (for debugging)")
	fmt.Println()
	fmt.Println("Session Commands:")
	fmt.Println("  open        Open a new session")
	fmt.Println("  list        List sessions")
	fmt.Println("  attach      Attach to a session")
	fmt.Println("  close       Close a session")
	fmt.Println("  control     Send a raw command over the control socket (list-sessions, capture <id>, send-keys <id> <text>)")
	fmt.Println()
	fmt.Println("Other:")
	fmt.Println("  configure   Interactive config setup wizard")
	fmt.Println("  version     Show version")
	fmt.Println("  update      Update weft to the latest version")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  weft start                 # Start the daemon")
	fmt.Println("  weft open -p shell -d .    # Open a shell session in the current dir")
	fmt.Println("  weft list                  # List all sessions")
	fmt.Println("  weft attach <session-id>   # Attach to a session")
	fmt.Println("  weft close <session-id>    # Close a session")
}
