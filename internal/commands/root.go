package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crewledger/crewledger/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "crewledger",
		Short:   "Import accounting exports into the job-costing ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to crewledger.yaml (default ./crewledger.yaml or $CREWLEDGER_CONFIG)")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(&configPath),
		newRollbackCommand(&configPath),
		newBatchesCommand(&configPath),
		newMappingsCommand(&configPath),
		newEntitiesCommand(&configPath),
		newSweepCommand(&configPath),
		newServeCommand(&configPath),
	)

	return rootCmd
}
