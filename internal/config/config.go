// Package config loads and hot-reloads the daemon's configuration file:
// shell/command presets, parser limits, and dashboard network settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/weftsh/weft/internal/schema"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Profile is a named shell/command + working-directory preset offered when
// opening a new session. RemoteHost, if set, names an entry in
// Config.RemoteHosts to run the session over SSH instead of a local PTY.
type Profile struct {
	Name       string `json:"name" yaml:"name"`
	Command    string `json:"command" yaml:"command"`
	Dir        string `json:"dir" yaml:"dir"`
	RemoteHost string `json:"remote_host,omitempty" yaml:"remote_host,omitempty"`
}

// RemoteHostConfig is an SSH target a Profile may run on. PrivateKeyPath
// and Password are alternative auth methods; at least one must be set.
type RemoteHostConfig struct {
	Name           string `json:"name" yaml:"name"`
	Addr           string `json:"addr" yaml:"addr"`
	User           string `json:"user" yaml:"user"`
	Password       string `json:"password,omitempty" yaml:"password,omitempty"`
	PrivateKeyPath string `json:"private_key_path,omitempty" yaml:"private_key_path,omitempty"`
}

// ParserOptions configures every vtparser.Parser constructed by the daemon.
// These are read once per session at construction time; changing them in
// the config file does not affect already-running sessions.
type ParserOptions struct {
	MaxParameters         int  `json:"max_parameters" yaml:"max_parameters"`
	MaxStringPayloadBytes int  `json:"max_string_payload_bytes" yaml:"max_string_payload_bytes"`
	OSCBelTerminator       bool `json:"osc_bel_terminator" yaml:"osc_bel_terminator"`
	Trace                  bool `json:"trace" yaml:"trace"`
}

// DashboardOptions configures the HTTP/WebSocket dashboard server.
type DashboardOptions struct {
	BindAddr    string `json:"bind_addr" yaml:"bind_addr"`
	ACMEHostname string `json:"acme_hostname,omitempty" yaml:"acme_hostname,omitempty"`
	ACMEEmail    string `json:"acme_email,omitempty" yaml:"acme_email,omitempty"`
}

// Config is the daemon's full configuration.
type Config struct {
	Profiles    []Profile          `json:"profiles" yaml:"profiles"`
	RemoteHosts []RemoteHostConfig `json:"remote_hosts,omitempty" yaml:"remote_hosts,omitempty"`
	Parser      ParserOptions      `json:"parser" yaml:"parser"`
	Dashboard   DashboardOptions   `json:"dashboard" yaml:"dashboard"`

	mu sync.RWMutex
}

func init() {
	schema.Register(schema.LabelConfig, Config{})
}

func defaultConfig() *Config {
	return &Config{
		Profiles: []Profile{
			{Name: "shell", Command: "", Dir: "~"},
		},
		Parser: ParserOptions{
			MaxParameters:         16,
			MaxStringPayloadBytes: 1 << 20,
			OSCBelTerminator:      false,
		},
		Dashboard: DashboardOptions{
			BindAddr: "127.0.0.1:7337",
		},
	}
}

// Dir returns ~/.weft, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home directory: %w", err)
	}
	dir := filepath.Join(home, ".weft")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create %s: %w", dir, err)
	}
	return dir, nil
}

// Path returns the path to config.yaml under ~/.weft.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureExists writes a default config.yaml if one does not already exist.
// Returns false with an error if the config path cannot be resolved or
// stat'd, or the default cannot be marshaled or written; a pre-existing
// file is not an error.
func EnsureExists() (bool, error) {
	path, err := Path()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err == nil {
		return true, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}

	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return false, fmt.Errorf("config: marshal default: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("config: write default: %w", err)
	}
	return true, nil
}

// Save validates and writes cfg to config.yaml, overwriting any existing
// file. Used by the "weft configure" wizard.
func Save(cfg *Config) error {
	if err := validate(cfg); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// Load reads and validates config.yaml.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("config: read: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	hosts := make(map[string]struct{}, len(cfg.RemoteHosts))
	for _, h := range cfg.RemoteHosts {
		if h.Name == "" || h.Addr == "" || h.User == "" {
			return fmt.Errorf("%w: remote host entries require name, addr, and user", ErrInvalidConfig)
		}
		if h.Password == "" && h.PrivateKeyPath == "" {
			return fmt.Errorf("%w: remote host %s needs a password or private_key_path", ErrInvalidConfig, h.Name)
		}
		hosts[h.Name] = struct{}{}
	}

	seen := make(map[string]struct{}, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		if p.Name == "" {
			return fmt.Errorf("%w: profile name is required", ErrInvalidConfig)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: duplicate profile name: %s", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.RemoteHost != "" {
			if _, ok := hosts[p.RemoteHost]; !ok {
				return fmt.Errorf("%w: profile %s references unknown remote host %s", ErrInvalidConfig, p.Name, p.RemoteHost)
			}
		}
	}
	if cfg.Parser.MaxParameters <= 0 {
		return fmt.Errorf("%w: parser.max_parameters must be positive", ErrInvalidConfig)
	}
	if cfg.Parser.MaxStringPayloadBytes <= 0 {
		return fmt.Errorf("%w: parser.max_string_payload_bytes must be positive", ErrInvalidConfig)
	}
	if cfg.Dashboard.BindAddr == "" {
		return fmt.Errorf("%w: dashboard.bind_addr is required", ErrInvalidConfig)
	}
	return nil
}

// GetProfiles returns the configured profiles.
func (c *Config) GetProfiles() []Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Profiles
}

// FindProfile finds a profile by name.
func (c *Config) FindProfile(name string) (Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// FindRemoteHost finds a remote host entry by name.
func (c *Config) FindRemoteHost(name string) (RemoteHostConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.RemoteHosts {
		if h.Name == name {
			return h, true
		}
	}
	return RemoteHostConfig{}, false
}

// GetParserOptions returns a copy of the parser options.
func (c *Config) GetParserOptions() ParserOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Parser
}

// GetDashboardOptions returns a copy of the dashboard options.
func (c *Config) GetDashboardOptions() DashboardOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Dashboard
}

func (c *Config) replace(next *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Profiles = next.Profiles
	c.RemoteHosts = next.RemoteHosts
	c.Parser = next.Parser
	c.Dashboard = next.Dashboard
}

// Watcher hot-reloads Profiles and Parser/Dashboard settings whenever
// config.yaml changes on disk, using fsnotify to watch a single config
// file shared by the whole daemon.
type Watcher struct {
	cfg      *Config
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Config)

	stopCh chan struct{}
	doneCh chan struct{}
}

// WatchFile starts hot-reloading cfg from its backing file. onChange, if
// non-nil, is invoked after every successful reload.
func WatchFile(cfg *Config, onChange func(*Config)) (*Watcher, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		cfg:      cfg,
		path:     path,
		watcher:  fsw,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Stop terminates the watcher.
func (w *Watcher) Stop() {
	select {
	case <-w.stopCh:
		return
	default:
		close(w.stopCh)
	}
	w.watcher.Close()
	<-w.doneCh
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	fileName := filepath.Base(w.path)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			fmt.Printf("[config] fsnotify error: %v\n", err)
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load()
	if err != nil {
		fmt.Printf("[config] reload failed, keeping previous config: %v\n", err)
		return
	}
	w.cfg.replace(next)
	if w.onChange != nil {
		w.onChange(w.cfg)
	}
}
