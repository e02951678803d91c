package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the galcurator CLI, registering every subcommand against
// a shared AppProvider before building the root command.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
	}

	rootCmd := newRootCmd(provider)
	return rootCmd.Execute()
}

func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "galcurator",
		Short: "Curate a local game library into a single canonical view",
		Long: `galcurator watches one or more library roots, detects game
installs, clusters them against a canonical catalog, and exposes a
read-only library view plus a narrow set of commands for resolving
ambiguous matches and organizing files on disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&provider.ConfigPath, "config", "", "path to the configuration file (default: platform config directory)")

	rootCmd.AddCommand(newDecideCmd(provider))
	rootCmd.AddCommand(newTrashCmd(provider))
	rootCmd.AddCommand(newOrganizeCmd(provider))
	rootCmd.AddCommand(newLibraryCmd(provider))
	rootCmd.AddCommand(newScanCmd(provider))
	rootCmd.AddCommand(newServeCmd(provider))

	return rootCmd
}
