// server/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vinizap/notesync/server/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(); err != nil {
			return err
		}
		if err := postgres.MigrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info().Msg("schema up to date")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(); err != nil {
			return err
		}
		steps, _ := cmd.Flags().GetInt("steps")
		if err := postgres.MigrateDown(cfg.DatabaseURL, steps); err != nil {
			return err
		}
		logger.Info().Int("steps", steps).Msg("migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireDatabase(); err != nil {
			return err
		}
		version, dirty, err := postgres.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if dirty {
			fmt.Fprintf(out, "%d (dirty)\n", version)
			return nil
		}
		fmt.Fprintln(out, version)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().Int("steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
