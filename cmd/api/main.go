package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attaboy/bonusvalue/internal/app"
	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/guard"
	"github.com/attaboy/bonusvalue/internal/infra"
	"github.com/attaboy/bonusvalue/internal/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Schema
	if err := infra.RunMigrations(cfg.DSN(), cfg.MigrationsDir, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Connect to Postgres
	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	metrics.Init()

	// Initialize dependencies
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAdminExpiry)
	ingestMgr := auth.NewIngestTokenManager(cfg.IngestTokenSecret(), cfg.IngestTokenTTL)
	svcs := app.NewServices(pool, cfg, jwtMgr, logger)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := svcs.AdminAuth.EnsureBootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	rl := guard.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go rl.RunSweeper(ctx, 5*time.Minute)

	r := app.NewRouter(app.RouterDeps{
		Pool:        pool,
		Config:      cfg,
		JWTMgr:      jwtMgr,
		IngestMgr:   ingestMgr,
		RateLimiter: rl,
		Logger:      logger,
	}, svcs)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
