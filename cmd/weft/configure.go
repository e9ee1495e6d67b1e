package main

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/weftsh/weft/internal/config"
)

// RunConfigWizard walks the user through building config.yaml's profile
// list interactively, using charmbracelet/huh instead of just writing a
// fixed default file.
func RunConfigWizard() error {
	existing, err := config.Load()
	cfg := &config.Config{
		Parser: config.ParserOptions{
			MaxParameters:         16,
			MaxStringPayloadBytes: 1 << 20,
			OSCBelTerminator:      true,
		},
		Dashboard: config.DashboardOptions{BindAddr: "127.0.0.1:7337"},
	}
	if err == nil {
		cfg.RemoteHosts = existing.RemoteHosts
		cfg.Parser = existing.GetParserOptions()
		cfg.Dashboard = existing.GetDashboardOptions()
	}

	remoteHostNames := make([]string, len(cfg.RemoteHosts))
	for i, h := range cfg.RemoteHosts {
		remoteHostNames[i] = h.Name
	}

	for {
		var name, command, dir, remoteHost string
		fields := []huh.Field{
			huh.NewInput().
				Title("Profile name").
				Value(&name).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Command (blank for the default shell)").
				Value(&command),
			huh.NewInput().
				Title("Working directory").
				Placeholder("~").
				Value(&dir),
		}
		if len(remoteHostNames) > 0 {
			options := make([]huh.Option[string], 0, len(remoteHostNames)+1)
			options = append(options, huh.NewOption("local", ""))
			for _, n := range remoteHostNames {
				options = append(options, huh.NewOption(n, n))
			}
			fields = append(fields, huh.NewSelect[string]().
				Title("Run on").
				Options(options...).
				Value(&remoteHost))
		}

		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
		if dir == "" {
			dir = "~"
		}
		cfg.Profiles = append(cfg.Profiles, config.Profile{Name: name, Command: command, Dir: dir, RemoteHost: remoteHost})

		var again bool
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add another profile?").
					Value(&again),
			),
		).Run(); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
		if !again {
			break
		}
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("configure: save: %w", err)
	}

	path, _ := config.Path()
	fmt.Printf("Wrote %s\n", path)
	return nil
}
