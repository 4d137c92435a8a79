package cmd

import (
	"fmt"

	secretsHelper "solarnode/secrets/helper"

	"github.com/spf13/cobra"
)

// RunToken is the function that runs the token command. It materializes the
// node API token in the data directory, leaving an existing token untouched
func RunToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed(DataDirFlag) {
		cfg.Node.DataDir = cmd.Flag(DataDirFlag).Value.String()
	}

	logger := SetupLogger(cfg.LogLevel)
	defer func() {
		_ = logger.Sync()
	}()

	secretsManager, err := secretsHelper.SetupLocalSecretsManager(cfg.Node.DataDir)
	if err != nil {
		return fmt.Errorf("failed to set up secrets manager: %w", err)
	}

	_, created, err := secretsHelper.InitAPIToken(secretsManager)
	if err != nil {
		return fmt.Errorf("failed to initialize API token: %w", err)
	}

	if created {
		logger.Infow("API token generated", "dataDir", cfg.Node.DataDir)
	} else {
		logger.Infow("Existing API token left in place", "dataDir", cfg.Node.DataDir)
	}

	return nil
}

// SetupTokenFlags sets up the flags for the token command
func SetupTokenFlags(cmd *cobra.Command) {
	cmd.Flags().String(DataDirFlag, "", "Node data directory holding the token")
	cmd.Flags().String(ConfigFlag, "", "Path to a config file (hcl, json or yaml)")
}
