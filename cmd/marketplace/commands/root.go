package commands

import (
	"fmt"
	"os"

	"marketplace-service/pkg/config"
	"marketplace-service/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfg *config.Config

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Wholesale marketplace between street vendors and suppliers",
	Long: `Marketplace serves the API that lets vendors find suppliers, browse their
catalogs and place orders, and lets suppliers manage products and accept or
decline incoming orders.

Configuration is read from .env and the environment (DB_*, SERVER_*, JWT_*,
STORAGE_*, LOG_LEVEL, METRICS_PREFIX, REALTIME_CLIENT_BUFFER).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		if err := logger.InitLogger(loaded); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.GetLogger().Sync()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.GetLogger().Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}
