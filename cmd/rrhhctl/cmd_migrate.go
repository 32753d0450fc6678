package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rrhh/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies the embedded schema migrations to DATABASE_URL.

Migrations that are already applied are skipped.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	logger.Info("applying migrations", "database", store.DatabaseName(cfg.Database.URL))
	return store.Migrate(cfg.Database.URL, logger)
}
