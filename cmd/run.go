package cmd

import (
	"context"
	"fmt"

	"solarnode/internal/config"
	"solarnode/internal/supervisor"

	"github.com/spf13/cobra"
)

// RunSupervisor is the function that runs the run command: it materializes
// the node configuration, launches the node and the companion API process,
// and supervises the pair until one of them exits
func RunSupervisor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := SetupLogger(cfg.LogLevel)
	defer func() {
		_ = logger.Sync()
	}()

	configPath := ""
	if cmd.Flags().Changed(ConfigFlag) {
		configPath = cmd.Flag(ConfigFlag).Value.String()
	}

	s := supervisor.New(logger, cfg, configPath)

	return s.Run(context.Background())
}

// SetupRunFlags sets up the flags for the run command
func SetupRunFlags(cmd *cobra.Command) {
	cmd.Flags().String(ConfigFlag, "", "Path to a config file (hcl, json or yaml)")
}

// loadConfig resolves configuration from an explicit config file when the
// --config flag is set, falling back to the environment otherwise
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed(ConfigFlag) {
		path := cmd.Flag(ConfigFlag).Value.String()

		cfg, err := config.ReadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
