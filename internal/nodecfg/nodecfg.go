package nodecfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"solarnode/chain"
	"solarnode/helper/common"
	"solarnode/internal/config"
	"solarnode/secrets"
	secretsHelper "solarnode/secrets/helper"
	"solarnode/secrets/local"

	"go.uber.org/zap"
)

// ConfigFilename is the name of the node configuration file inside the data directory
const ConfigFilename = "config.json"

var (
	// ErrGenesisMissing signals the fatal precondition failure: the genesis
	// document must exist before anything else is materialized
	ErrGenesisMissing = errors.New("genesis document not found")
)

// NodeLocal is the subset of the node's per-instance configuration the
// deployment unit manages. Field names follow the node's own config schema
type NodeLocal struct {
	EndpointAddress             string `json:"EndpointAddress"`
	NetAddress                  string `json:"NetAddress"`
	EnableDeveloperAPI          bool   `json:"EnableDeveloperAPI"`
	EnableBlockService          bool   `json:"EnableBlockService"`
	EnableLedgerService         bool   `json:"EnableLedgerService"`
	EnableGossipService         bool   `json:"EnableGossipService"`
	EnableTelemetry             bool   `json:"EnableTelemetry"`
	DisableAPIAuth              bool   `json:"DisableAPIAuth"`
	CatchpointInterval          uint64 `json:"CatchpointInterval"`
	CatchpointFileHistoryLength int    `json:"CatchpointFileHistoryLength"`
}

// Materializer ensures the node's configuration file and authentication
// token exist inside the data directory, creating them only if absent.
// Re-runs never clobber a live node's identity or settings
type Materializer struct {
	logger *zap.SugaredLogger
	config *config.NodeConfig
}

func NewMaterializer(logger *zap.SugaredLogger, nodeConfig *config.NodeConfig) *Materializer {
	return &Materializer{
		logger: logger.Named("nodecfg"),
		config: nodeConfig,
	}
}

// Materialize runs the materialization steps in order: genesis precondition,
// data directory, configuration file, authentication token
func (m *Materializer) Materialize() error {
	if !common.FileExists(m.config.GenesisPath) {
		return fmt.Errorf("%w at %s", ErrGenesisMissing, m.config.GenesisPath)
	}

	genesis, err := chain.ImportGenesis(m.config.GenesisPath)
	if err != nil {
		return fmt.Errorf("genesis document at %s is not usable: %w", m.config.GenesisPath, err)
	}

	m.logger.Infow("Genesis document present", "network", genesis.Network, "path", m.config.GenesisPath)

	if err := common.SetupDataDir(m.config.DataDir, nil); err != nil {
		return err
	}

	if err := m.materializeConfigFile(); err != nil {
		return err
	}

	return m.materializeToken()
}

// materializeConfigFile writes the node configuration file, skipping the
// write entirely when the file already exists
func (m *Materializer) materializeConfigFile() error {
	path := filepath.Join(m.config.DataDir, ConfigFilename)

	if common.FileExists(path) {
		m.logger.Infow("Node config already present, skipping", "path", path)

		return nil
	}

	data, err := json.MarshalIndent(m.nodeLocal(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate node config: %w", err)
	}

	if err := os.WriteFile(path, data, common.SecretPerms); err != nil {
		return fmt.Errorf("failed to write node config: %w", err)
	}

	m.logger.Infow("Node config written", "path", path)

	return nil
}

// materializeToken makes sure the shared API token exists. An existing
// token is reused so clients keep working across restarts
func (m *Materializer) materializeToken() error {
	secretsManager, err := local.SecretsManagerFactory(
		nil,
		&secrets.SecretsManagerParams{
			Logger: m.logger,
			Extra: map[string]interface{}{
				secrets.Path: m.config.DataDir,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to set up the secrets manager: %w", err)
	}

	_, created, err := secretsHelper.InitAPIToken(secretsManager)
	if err != nil {
		return err
	}

	if created {
		m.logger.Infow("API token generated", "data_dir", m.config.DataDir)
	} else {
		m.logger.Infow("API token already present, skipping", "data_dir", m.config.DataDir)
	}

	return nil
}

func (m *Materializer) nodeLocal() *NodeLocal {
	return &NodeLocal{
		EndpointAddress:             m.config.EndpointAddr,
		NetAddress:                  m.config.GossipAddr,
		EnableDeveloperAPI:          false,
		EnableBlockService:          true,
		EnableLedgerService:         true,
		EnableGossipService:         true,
		EnableTelemetry:             false,
		DisableAPIAuth:              false,
		CatchpointInterval:          m.config.CatchpointInterval,
		CatchpointFileHistoryLength: m.config.CatchpointFileHistoryLength,
	}
}
