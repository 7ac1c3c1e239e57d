package cmd

import (
	"context"

	"econsim/config"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the econsim command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "econsim",
		Short:         "Virtual economy engine: markets, taxes, bets and lottery",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			return configureLogging(cfg.LogLevel, cfg.LogFormat)
		},
	}

	root.AddCommand(
		newRunCmd(),
		newMigrateCmd(),
		newTaxNowCmd(),
		newDrawCmd(),
		newMarketCmd(),
		newGiveCmd(),
		newTakeCmd(),
		newBetCmd(),
	)
	return root
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
