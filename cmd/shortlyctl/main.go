// Command shortlyctl administers a Shortly database from the command line.
package main

import (
	"Shortly-Backend/internal/config"
	"Shortly-Backend/internal/database"
	"Shortly-Backend/internal/repository/gormstore"
	"Shortly-Backend/pkg/logger"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shortlyctl",
	Short: "Administer a Shortly URL shortener database",
	Long: `shortlyctl works directly against the database configured for the
Shortly service (CONFIG_PATH, .env or environment variables).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log = logger.New(cfg.Env)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd, shortenCmd, linksCmd, useraddCmd)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStorage connects to the configured database. The caller closes db.
func openStorage() (*gormstore.Storage, *gorm.DB, error) {
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return gormstore.New(db, log), db, nil
}
