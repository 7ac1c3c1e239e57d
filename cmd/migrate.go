package cmd

import (
	"econsim/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateUp()
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := "1"
				if len(args) == 1 {
					steps = args[0]
				}
				return database.MigrateDown(steps)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateStatus()
			},
		},
	)
	return migrateCmd
}
