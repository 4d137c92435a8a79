package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"solarnode/internal/config"

	"go.uber.org/zap"
)

// Companion manages the credential API server as a child OS process. The
// supervisor re-executes its own binary with the api subcommand so the two
// processes stay independently scheduled but share one deployment artifact
type Companion struct {
	logger *zap.SugaredLogger
	config *config.Config

	// configPath is the config file the supervisor was started with; it is
	// forwarded so the pair resolves identical settings
	configPath string

	// command overrides the self-exec argv, for tests
	command []string

	cmd     *exec.Cmd
	exitCh  chan struct{}
	waitErr error

	stopGrace time.Duration
}

var ErrCompanionAlreadyStarted = errors.New("companion process already started")

func NewCompanion(logger *zap.SugaredLogger, cfg *config.Config, configPath string) *Companion {
	return &Companion{
		logger:     logger.Named("companion"),
		config:     cfg,
		configPath: configPath,
		stopGrace:  cfg.Node.StopGrace,
	}
}

func (c *Companion) Name() string {
	return "companion-api"
}

// Start launches the API server process with the configured worker count.
// Log output stays on the standard streams
func (c *Companion) Start() error {
	if c.cmd != nil {
		return ErrCompanionAlreadyStarted
	}

	argv, err := c.buildArgv()
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start companion API process: %w", err)
	}

	c.cmd = cmd
	c.exitCh = make(chan struct{})

	go func() {
		c.waitErr = cmd.Wait()
		close(c.exitCh)
	}()

	c.logger.Infow("Companion API process started",
		"pid", cmd.Process.Pid,
		"workers", c.config.API.Workers,
	)

	return nil
}

// buildArgv assembles the self-exec command line. The config file the
// supervisor resolved its own settings from is forwarded so the companion
// does not fall back to the environment and diverge from the node
func (c *Companion) buildArgv() ([]string, error) {
	if len(c.command) > 0 {
		return c.command, nil
	}

	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve own executable: %w", err)
	}

	argv := []string{
		executable,
		"api",
		"--workers", strconv.Itoa(c.config.API.Workers),
		"--port", strconv.Itoa(c.config.API.Port),
	}

	if c.configPath != "" {
		argv = append(argv, "--config", c.configPath)
	}

	return argv, nil
}

// Done is closed once the companion process has exited
func (c *Companion) Done() <-chan struct{} {
	return c.exitCh
}

// ExitError returns the result of waiting on the companion process. Only
// valid after Done is closed
func (c *Companion) ExitError() error {
	return c.waitErr
}

// Stop terminates the companion process, escalating to SIGKILL after the
// grace period. Safe to call after the process has already exited
func (c *Companion) Stop() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}

	select {
	case <-c.exitCh:
		return nil
	default:
	}

	_ = c.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-c.exitCh:
	case <-time.After(c.stopGrace):
		c.logger.Warnw("Companion did not stop gracefully, killing", "pid", c.cmd.Process.Pid)
		_ = c.cmd.Process.Kill()
		<-c.exitCh
	}

	return nil
}
