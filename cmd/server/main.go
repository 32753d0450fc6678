package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/rrhh/internal/auth"
	"github.com/JonMunkholm/rrhh/internal/config"
	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/logging"
	"github.com/JonMunkholm/rrhh/internal/store"
	"github.com/JonMunkholm/rrhh/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"grid_max_sessions", cfg.Grid.MaxSessions,
		"production", cfg.Server.Production,
	)

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(cfg.Database.URL, slog.Default()); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pg := store.NewPostgres(pool)
	service := core.NewService(pg)

	sessions, err := auth.NewManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.CookieName, cfg.Server.Production)
	if err != nil {
		slog.Error("failed to configure sessions", "error", err)
		os.Exit(1)
	}

	server, err := web.NewServer(service, sessions, cfg, web.WithHealthCheck(pg))
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
