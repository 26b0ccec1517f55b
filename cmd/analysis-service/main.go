package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trogers1052/market-analysis-service/internal/config"
	"github.com/trogers1052/market-analysis-service/internal/database"
	"github.com/trogers1052/market-analysis-service/internal/logging"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "analysis-service",
	Short:        "Kline technical analysis and cross-market reports",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(cfg.Database.MigrationsURL); err != nil {
			return err
		}
		logger.Info("Migrations applied", zap.String("source", cfg.Database.MigrationsURL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, analyzeCmd, migrateCmd)
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
