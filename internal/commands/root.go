package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/debtbook/internal/buildinfo"
	"github.com/cleared-dev/debtbook/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "debtbook",
		Short:   "Track what people owe you, cycle by cycle",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.FileName, "path to debtbook.yaml")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(opts),
		newLedgerCommand(opts),
		newSettleCommand(opts),
		newVoidCommand(opts),
		newHistoryCommand(opts),
		newExportCommand(opts),
	)

	return rootCmd
}
