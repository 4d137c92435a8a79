package main

import (
	"fmt"
	"os"

	"solarnode/cmd"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "solarnode",
	Short: "Solarnode - Algorand node deployment unit",
	Long: `Solarnode packages an Algorand node and its companion credential API
as a single supervised deployment unit: it materializes the node configuration,
launches both processes and makes sure they live and die together.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the node and its companion credential API",
	RunE:  cmd.RunSupervisor,
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the credential API against the local node",
	RunE:  cmd.RunAPI,
}

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Generate a genesis document for a fresh network",
	RunE:  cmd.RunGenesis,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Materialize the node API token",
	RunE:  cmd.RunToken,
}

func init() {
	cmd.SetupRunFlags(runCmd)
	cmd.SetupAPIFlags(apiCmd)
	cmd.SetupGenesisFlags(genesisCmd)
	cmd.SetupTokenFlags(tokenCmd)

	rootCmd.AddCommand(
		runCmd,
		apiCmd,
		genesisCmd,
		tokenCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
