package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"solarnode/helper/common"
	"solarnode/internal/config"

	"go.uber.org/zap"
)

// PidFilename is the pidfile the wrapper maintains inside the data
// directory. Instance identity is tracked through this owned handle
// instead of scanning the process table by name
const PidFilename = "algod.pid"

var (
	ErrAlreadyStarted = errors.New("node process already started")
	ErrNotReady       = errors.New("node did not become ready")
)

// Wrapper launches the external consensus node as a child process bound to
// a data directory, and owns its lifecycle
type Wrapper struct {
	logger *zap.SugaredLogger
	config *config.NodeConfig

	httpClient *http.Client

	cmd     *exec.Cmd
	exitCh  chan struct{}
	waitErr error
}

func NewWrapper(logger *zap.SugaredLogger, nodeConfig *config.NodeConfig) *Wrapper {
	return &Wrapper{
		logger: logger.Named("node"),
		config: nodeConfig,
		httpClient: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func (w *Wrapper) Name() string {
	return "node"
}

// Reconcile makes sure at most one node instance runs against the data
// directory before a new one is started. A live instance recorded in the
// pidfile is asked to terminate and waited on; failure to stop it is fatal
func (w *Wrapper) Reconcile() error {
	pid, ok := w.readPidfile()
	if !ok {
		return nil
	}

	if !processAlive(pid) {
		w.logger.Infow("Removing stale pidfile", "pid", pid)
		w.removePidfile()

		return nil
	}

	w.logger.Infow("Existing node instance detected, stopping it", "pid", pid)

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal existing node instance (pid %d): %w", pid, err)
	}

	deadline := time.Now().Add(w.config.StopGrace)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			w.removePidfile()

			return nil
		}

		time.Sleep(200 * time.Millisecond)
	}

	return fmt.Errorf("existing node instance (pid %d) did not stop within %s", pid, w.config.StopGrace)
}

// Start launches the node bound to the data directory. The genesis document
// is passed only on first boot: once ledger state exists it must never be
// reapplied
func (w *Wrapper) Start() error {
	if w.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd := exec.Command(w.config.Binary, w.startArgs()...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start node process: %w", err)
	}

	w.cmd = cmd
	w.exitCh = make(chan struct{})

	if err := w.writePidfile(cmd.Process.Pid); err != nil {
		return err
	}

	go func() {
		w.waitErr = cmd.Wait()
		close(w.exitCh)
	}()

	w.logger.Infow("Node process started",
		"pid", cmd.Process.Pid,
		"data_dir", w.config.DataDir,
	)

	return nil
}

// startArgs builds the node command line for the current data directory state
func (w *Wrapper) startArgs() []string {
	args := []string{"-d", w.config.DataDir}

	if w.hasLedgerState() {
		w.logger.Infow("Ledger state present, skipping genesis import", "data_dir", w.config.DataDir)
	} else {
		args = append(args, "-g", w.config.GenesisPath)
	}

	return args
}

// hasLedgerState reports whether the node has already initialized ledger
// state inside the data directory. The node keeps its ledger in a network
// subdirectory, so any subdirectory marks the data dir as initialized
func (w *Wrapper) hasLedgerState() bool {
	entries, err := os.ReadDir(w.config.DataDir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			return true
		}
	}

	return false
}

// WaitReady blocks until the node accepts requests on its data-plane API.
// A settle floor elapses first, then the health endpoint is polled with a
// bounded deadline, failing fast if the node exits or never reports healthy
func (w *Wrapper) WaitReady(ctx context.Context) error {
	select {
	case <-time.After(w.config.SettleDelay):
	case <-w.exitCh:
		return fmt.Errorf("%w: node process exited during settle delay", ErrNotReady)
	case <-ctx.Done():
		return ctx.Err()
	}

	readyCtx, cancel := context.WithTimeout(ctx, w.config.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(w.config.ReadyInterval)
	defer ticker.Stop()

	for {
		if w.probeHealth(readyCtx) {
			w.logger.Infow("Node ready", "endpoint", w.config.EndpointAddr)

			return nil
		}

		select {
		case <-ticker.C:
		case <-w.exitCh:
			return fmt.Errorf("%w: node process exited before becoming ready", ErrNotReady)
		case <-readyCtx.Done():
			return fmt.Errorf("%w within %s", ErrNotReady, w.config.ReadyTimeout)
		}
	}
}

func (w *Wrapper) probeHealth(ctx context.Context) bool {
	url := fmt.Sprintf("http://%s/health", w.config.EndpointAddr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Done is closed once the node process has exited
func (w *Wrapper) Done() <-chan struct{} {
	return w.exitCh
}

// ExitError returns the result of waiting on the node process. Only valid
// after Done is closed
func (w *Wrapper) ExitError() error {
	return w.waitErr
}

// Stop terminates the node process: graceful signal first, SIGKILL once the
// grace period runs out. Safe to call after the process has already exited
func (w *Wrapper) Stop() error {
	if w.cmd == nil || w.cmd.Process == nil {
		return nil
	}

	defer w.removePidfile()

	select {
	case <-w.exitCh:
		return nil
	default:
	}

	_ = w.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-w.exitCh:
	case <-time.After(w.config.StopGrace):
		w.logger.Warnw("Node did not stop gracefully, killing", "pid", w.cmd.Process.Pid)
		_ = w.cmd.Process.Kill()
		<-w.exitCh
	}

	return nil
}

func (w *Wrapper) pidfilePath() string {
	return filepath.Join(w.config.DataDir, PidFilename)
}

func (w *Wrapper) readPidfile() (int, bool) {
	data, err := os.ReadFile(w.pidfilePath())
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

func (w *Wrapper) writePidfile(pid int) error {
	contents := strconv.Itoa(pid) + "\n"

	if err := os.WriteFile(w.pidfilePath(), []byte(contents), common.SecretPerms); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}

	return nil
}

func (w *Wrapper) removePidfile() {
	_ = os.Remove(w.pidfilePath())
}

// processAlive checks liveness through a zero signal
func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
