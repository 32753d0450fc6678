// Command rrhhctl runs operator tasks against the employee database:
// schema migrations, grid exports and user accounts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rrhh/internal/config"
	"github.com/JonMunkholm/rrhh/internal/logging"
	"github.com/JonMunkholm/rrhh/internal/store"
)

var (
	envFile  string
	logLevel string
	timeout  time.Duration

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rrhhctl",
	Short: "Operator tools for the RRHH employee records service",
	Long: `rrhhctl runs maintenance tasks against the RRHH database.

It reads the same environment as the server (DATABASE_URL, LOG_LEVEL,
LOG_FORMAT) and does not need session settings. Logs go to stderr so
exports can be piped from stdout.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Overload(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("read %s: %w", envFile, err)
			}
		}

		var err error
		cfg, err = config.LoadTooling()
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withPool runs fn with a connected pool and the command timeout.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}
