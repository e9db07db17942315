package main

import (
	"Shortly-Backend/internal/auth"
	"Shortly-Backend/internal/database"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	useraddUsername string
	useraddPassword string
)

var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Create a local account",
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, db, err := openStorage()
		if err != nil {
			return err
		}
		defer database.Close(db, log)

		credentials := auth.NewCredentialStore(storage, auth.NewPasswordService(), log)
		user, err := credentials.Create(cmd.Context(), useraddUsername, useraddPassword)
		if errors.Is(err, auth.ErrDuplicateUser) {
			return fmt.Errorf("user %q already exists", useraddUsername)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	useraddCmd.Flags().StringVar(&useraddUsername, "username", "", "login name")
	useraddCmd.Flags().StringVar(&useraddPassword, "password", "", "password, 6 to 72 bytes")
	_ = useraddCmd.MarkFlagRequired("username")
	_ = useraddCmd.MarkFlagRequired("password")
}
