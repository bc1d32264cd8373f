// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-companion-auth.
//
// go-companion-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-companion-auth/internal/config"
	"github.com/jeremyhahn/go-companion-auth/internal/rest"
	"github.com/jeremyhahn/go-companion-auth/pkg/auth"
	"github.com/jeremyhahn/go-companion-auth/pkg/metrics"
	"github.com/jeremyhahn/go-companion-auth/pkg/passkey"
	"github.com/jeremyhahn/go-companion-auth/pkg/principal"
	"github.com/jeremyhahn/go-companion-auth/pkg/ratelimit"
	"github.com/jeremyhahn/go-companion-auth/pkg/token"
)

// serveCmd runs the authentication server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the authentication server",
	Long: `Start the HTTP authentication server. Configuration is read from
the file given by --config with environment variable overrides; the
JWT signing secrets must be provided via COMPANION_JWT_SECRET and
COMPANION_JWT_REFRESH_SECRET.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	if envConfig := os.Getenv("COMPANION_CONFIG"); envConfig != "" {
		configPath = envConfig
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		"config", configPath,
		"rp_id", cfg.WebAuthn.RPID,
		"port", cfg.Server.Port)

	engine, err := passkey.NewEngine(&cfg.WebAuthn)
	if err != nil {
		return fmt.Errorf("failed to create passkey engine: %w", err)
	}

	issuer, err := token.NewIssuer(cfg.Tokens.ToTokenConfig())
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	service, err := auth.NewService(auth.ServiceParams{
		Engine:            engine,
		ParentStore:       principal.NewMemoryParentStore(),
		ChildStore:        principal.NewMemoryChildStore(),
		Issuer:            issuer,
		ChallengeCache:    auth.NewMemoryChallengeCache(),
		RefreshTokenStore: auth.NewMemoryRefreshTokenStore(),
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	metrics.Enable()
	collector := metrics.StartResourceCollector(context.Background(), 30*time.Second)
	defer collector.Stop()

	limiter := ratelimit.New(&cfg.RateLimit)
	defer limiter.Stop()

	server, err := rest.NewServer(&rest.Config{
		Port:         cfg.Server.Port,
		Service:      service,
		Issuer:       issuer,
		Limiter:      limiter,
		Version:      Version,
		Logger:       logger,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Periodic cleanup of expired refresh tokens and stale challenges
	stopSweeper := service.RunSweeper(context.Background(), cfg.Sweeper.Interval)
	defer stopSweeper()

	shutdownCtx := setupSignalHandler(logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// setupLogger builds the process logger from the logging configuration.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// setupSignalHandler sets up signal handling for graceful shutdown
func setupSignalHandler(logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	return ctx
}
