package supervisor

import (
	"context"
	"fmt"

	"solarnode/helper/common"
	"solarnode/internal/config"
	"solarnode/internal/node"
	"solarnode/internal/nodecfg"

	"go.uber.org/zap"
)

// Process is a managed child process of the deployment unit
type Process interface {
	Name() string
	Start() error
	Stop() error
	Done() <-chan struct{}
	ExitError() error
}

// NodeProcess extends Process with the node-specific lifecycle steps
type NodeProcess interface {
	Process
	Reconcile() error
	WaitReady(ctx context.Context) error
}

// Materializer prepares the on-disk artifacts the managed processes consume
type Materializer interface {
	Materialize() error
}

// Supervisor owns the node process and the companion API process as a
// managed pair: it enforces their startup ordering and guarantees that the
// two degrade together. There is no restart logic at this layer; a process
// exit is fatal to the whole unit and restart policy belongs to the outer
// deployment platform
type Supervisor struct {
	logger *zap.SugaredLogger
	config *config.Config

	materializer Materializer
	node         NodeProcess
	companion    Process
}

// New wires the supervisor with the real materializer, node wrapper and
// companion process. configPath is the config file the settings were read
// from, blank when they came from the environment
func New(logger *zap.SugaredLogger, cfg *config.Config, configPath string) *Supervisor {
	return &Supervisor{
		logger:       logger.Named("supervisor"),
		config:       cfg,
		materializer: nodecfg.NewMaterializer(logger, &cfg.Node),
		node:         node.NewWrapper(logger, &cfg.Node),
		companion:    NewCompanion(logger, cfg, configPath),
	}
}

// Run drives the unit through its whole life: materialize artifacts, start
// the node, wait for readiness, start the companion, then block until
// either child exits and tear the sibling down. The returned error is nil
// only when the triggering exit was clean
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.materializer.Materialize(); err != nil {
		return fmt.Errorf("materialization failed: %w", err)
	}

	if err := s.node.Reconcile(); err != nil {
		return fmt.Errorf("node reconciliation failed: %w", err)
	}

	if err := s.node.Start(); err != nil {
		return err
	}

	if err := s.node.WaitReady(ctx); err != nil {
		_ = s.node.Stop()

		return err
	}

	if err := s.companion.Start(); err != nil {
		_ = s.node.Stop()

		return err
	}

	s.enableDataDogProfiler()
	defer s.closeDataDogProfiler()

	return s.superviseLoop(ctx)
}

// superviseLoop blocks until any child exits or an external stop arrives,
// then applies the fail-together policy
func (s *Supervisor) superviseLoop(ctx context.Context) error {
	signalCh := common.GetTerminationSignalCh()

	var first, sibling Process

	select {
	case <-s.node.Done():
		first, sibling = s.node, s.companion
	case <-s.companion.Done():
		first, sibling = s.companion, s.node
	case sig := <-signalCh:
		s.logger.Infow("Caught signal, shutting down unit", "signal", sig)

		return s.teardown(fmt.Errorf("terminated by signal %v", sig))
	case <-ctx.Done():
		return s.teardown(ctx.Err())
	}

	exitErr := first.ExitError()
	s.logger.Errorw("Managed process exited, tearing down sibling",
		"process", first.Name(),
		"sibling", sibling.Name(),
		"err", exitErr,
	)

	if stopErr := sibling.Stop(); stopErr != nil {
		s.logger.Errorw("Failed to stop sibling process", "process", sibling.Name(), "err", stopErr)
	}

	if exitErr != nil {
		return fmt.Errorf("%s exited abnormally: %w", first.Name(), exitErr)
	}

	return nil
}

// teardown stops both children on an externally triggered shutdown
func (s *Supervisor) teardown(cause error) error {
	if err := s.companion.Stop(); err != nil {
		s.logger.Errorw("Failed to stop companion", "err", err)
	}

	if err := s.node.Stop(); err != nil {
		s.logger.Errorw("Failed to stop node", "err", err)
	}

	return cause
}
