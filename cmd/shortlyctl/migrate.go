package main

import (
	"Shortly-Backend/internal/database"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the users, links, clicks and sessions tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStorage()
		if err != nil {
			return err
		}
		defer database.Close(db, log)

		if err := database.AutoMigrate(db, log); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database migrations executed successfully.")
		return nil
	},
}
