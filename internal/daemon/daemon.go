// Package daemon owns the long-running weft process: it manages the PID
// file, owns the session.Manager/state.State/dashboard.Server triple, and
// implements the start/stop/status lifecycle behind the "weft" CLI's
// daemon commands.
package daemon

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/weftsh/weft/internal/config"
	"github.com/weftsh/weft/internal/dashboard"
	"github.com/weftsh/weft/internal/session"
	"github.com/weftsh/weft/internal/state"
	"github.com/weftsh/weft/internal/tlscert"
)

const pidFileName = "weft.pid"
const dashboardPort = 7337

// ErrDevRestart is the sentinel the CLI maps to exit code 42 when it comes
// back from Run. Run itself never returns it.
var ErrDevRestart = errors.New("daemon: dev mode requested a restart")

// Daemon is the running process's owned state: its session manager,
// persisted state, dashboard HTTP server, and config watcher.
type Daemon struct {
	cfg     *config.Config
	st      *state.State
	mgr     *session.Manager
	srv     *dashboard.Server
	watcher *config.Watcher

	httpSrv *http.Server
	ctl     *controlServer

	mu       sync.Mutex
	shutdown bool
	doneCh   chan struct{}
}

var (
	currentMu sync.Mutex
	current   *Daemon
)

func pidFilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, pidFileName), nil
}

func readPIDFile() (int, error) {
	path, err := pidFilePath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("daemon: malformed pid file: %w", err)
	}
	return pid, nil
}

func writePIDFile() error {
	path, err := pidFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}

func removePIDFile() error {
	path, err := pidFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// ValidateReadyToRun checks preconditions before starting the daemon: no
// other instance already running, and the dashboard port is free.
func ValidateReadyToRun() error {
	if pid, err := readPIDFile(); err == nil && processAlive(pid) {
		return fmt.Errorf("daemon: already running (pid %d)", pid)
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", dashboardPort))
	if err != nil {
		return fmt.Errorf("daemon: dashboard port %d unavailable: %w", dashboardPort, err)
	}
	ln.Close()
	return nil
}

// Start launches the daemon as a detached background process and waits
// for it to report itself running.
func Start() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("daemon: find executable: %w", err)
	}

	cmd := exec.Command(exe, "daemon-run", "--background")
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("daemon: spawn background process: %w", err)
	}
	_ = cmd.Process.Release()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if running, _, _, err := Status(); err == nil && running {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon: did not come up within 5s")
}

// Stop signals a running daemon to shut down and waits briefly for it to
// exit.
func Stop() error {
	pid, err := readPIDFile()
	if err != nil {
		return fmt.Errorf("daemon: not running")
	}
	if !processAlive(pid) {
		_ = removePIDFile()
		return fmt.Errorf("daemon: not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("daemon: signal pid %d: %w", pid, err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon: pid %d did not exit within 5s", pid)
}

// Status reports whether the daemon is running, its dashboard URL, and
// its PID.
func Status() (running bool, url string, pid int, err error) {
	pid, readErr := readPIDFile()
	if readErr != nil {
		return false, "", 0, nil
	}
	if !processAlive(pid) {
		return false, "", pid, nil
	}
	return true, fmt.Sprintf("http://127.0.0.1:%d", dashboardPort), pid, nil
}

// Shutdown gracefully stops the currently running in-process Daemon, if
// any. It is safe to call when no daemon is active (e.g. from a signal
// handler race, or in tests).
func Shutdown() {
	currentMu.Lock()
	d := current
	currentMu.Unlock()
	if d == nil {
		return
	}
	d.shutdownOnce()
}

// Run starts the daemon in the foreground: it loads config and state,
// starts the session manager and dashboard server, and blocks until
// signaled to stop. background is threaded through from the CLI's
// --background flag (set when launched via Start) purely for logging;
// devProxy only makes Run log that dev-proxy mode is on, along with the
// devMode value; the dashboard serves no frontend assets and proxies
// nothing in either mode.
func Run(background, devProxy, devMode bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("daemon: load config: %w", err)
	}
	st, err := state.Load()
	if err != nil {
		return fmt.Errorf("daemon: load state: %w", err)
	}

	if err := writePIDFile(); err != nil {
		return fmt.Errorf("daemon: write pid file: %w", err)
	}

	mgr := session.New(cfg, st)
	srv := dashboard.NewServer(cfg, st, mgr)

	ctl, err := startControlSocket(mgr)
	if err != nil {
		fmt.Printf("[daemon] control socket disabled: %v\n", err)
	}

	watcher, err := config.WatchFile(cfg, nil)
	if err != nil {
		fmt.Printf("[daemon] config hot-reload disabled: %v\n", err)
	}

	d := &Daemon{cfg: cfg, st: st, mgr: mgr, srv: srv, watcher: watcher, ctl: ctl, doneCh: make(chan struct{})}

	currentMu.Lock()
	current = d
	currentMu.Unlock()
	defer func() {
		currentMu.Lock()
		if current == d {
			current = nil
		}
		currentMu.Unlock()
	}()

	dashOpts := cfg.GetDashboardOptions()
	addr := dashOpts.BindAddr
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", dashboardPort)
	}
	d.httpSrv = &http.Server{Addr: addr, Handler: srv}

	var cert *tls.Certificate
	if dashOpts.ACMEHostname != "" {
		certPEM, keyPEM, err := tlscert.ObtainCertificate(context.Background(), dashOpts.ACMEHostname, dashOpts.ACMEEmail, ":80")
		if err != nil {
			fmt.Printf("[daemon] ACME certificate request for %s failed, serving plain HTTP: %v\n", dashOpts.ACMEHostname, err)
		} else if pair, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
			fmt.Printf("[daemon] ACME certificate unusable, serving plain HTTP: %v\n", err)
		} else {
			cert = &pair
			d.httpSrv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{pair}}
		}
	}

	if devProxy {
		fmt.Printf("[daemon] dev-proxy mode enabled (dev-mode=%v)\n", devMode)
	}
	fmt.Printf("[daemon] listening on %s (background=%v, tls=%v)\n", addr, background, cert != nil)

	serveErrCh := make(chan error, 1)
	go func() {
		var err error
		if cert != nil {
			err = d.httpSrv.ListenAndServeTLS("", "")
		} else {
			err = d.httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serveErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case err := <-serveErrCh:
		d.shutdownOnce()
		return fmt.Errorf("daemon: serve: %w", err)
	case <-d.doneCh:
	}

	d.shutdownOnce()
	return nil
}

func (d *Daemon) shutdownOnce() {
	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		return
	}
	d.shutdown = true
	d.mu.Unlock()

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.ctl != nil {
		d.ctl.stop()
	}
	if d.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = d.httpSrv.Shutdown(ctx)
		cancel()
	}
	for _, sess := range d.mgr.GetAllSessions() {
		_ = d.mgr.Close(sess.ID)
	}
	_ = removePIDFile()

	select {
	case <-d.doneCh:
	default:
		close(d.doneCh)
	}
}
