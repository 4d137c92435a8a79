package cmd

import (
	"fmt"

	"solarnode/chain"
	cmdHelper "solarnode/cmd/helper"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// RunGenesis is the function that runs the genesis command. It generates a
// genesis document for a fresh network, plus the secrets of its three
// controlling accounts
func RunGenesis(cmd *cobra.Command, args []string) error {
	logger := SetupLogger("INFO")
	defer func() {
		_ = logger.Sync()
	}()

	rawAmount, _ := cmd.Flags().GetString(AmountFlag)

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", rawAmount, err)
	}

	currency, _ := cmd.Flags().GetString(CurrencyFlag)
	network, _ := cmd.Flags().GetString(NetworkFlag)
	genesisPath, _ := cmd.Flags().GetString(GenesisOutFlag)
	secretsPath, _ := cmd.Flags().GetString(SecretsOutFlag)

	genesis, secrets, err := chain.Generate(cmd.Context(), chain.GenerateParams{
		Amount:   amount,
		Currency: currency,
		Network:  network,
		Rates:    chain.NewIMFRateSource(),
	})
	if err != nil {
		return fmt.Errorf("failed to generate genesis: %w", err)
	}

	if err := chain.WriteGenesisToDisk(genesis, genesisPath); err != nil {
		return err
	}

	if err := chain.WriteSecretsToDisk(secrets, secretsPath); err != nil {
		return err
	}

	logger.Infow("Genesis document generated",
		"network", genesis.Network,
		"genesis", genesisPath,
		"secrets", secretsPath,
		"genesisAccount", secrets.Genesis.Address,
		"rewardsAccount", secrets.Rewards.Address,
		"feeSinkAccount", secrets.FeeSink.Address,
	)

	return nil
}

// SetupGenesisFlags sets up the flags for the genesis command
func SetupGenesisFlags(cmd *cobra.Command) {
	cmd.Flags().String(AmountFlag, "", "Initial allocation for the genesis account")
	cmd.Flags().String(CurrencyFlag, "XDR", "Currency the amount is denominated in")
	cmd.Flags().String(NetworkFlag, chain.DefaultNetworkName, "Network identifier")
	cmd.Flags().String(GenesisOutFlag, "genesis.json", "Output path for the genesis document")
	cmd.Flags().String(SecretsOutFlag, "genesis-secrets.json", "Output path for the account secrets")

	cmdHelper.SetRequiredFlags(cmd, []string{AmountFlag})
}
