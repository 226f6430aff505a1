package commands

import (
	"fmt"

	"marketplace-service/pkg/database"
	"marketplace-service/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DB.Driver != "postgres" {
			return fmt.Errorf("migrate needs DB_DRIVER=postgres, got %q", cfg.DB.Driver)
		}

		db, err := database.InitDB(&cfg.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.GetLogger().Info("Migrations completed", zap.String("database", cfg.DB.DBName))
		return nil
	},
}
