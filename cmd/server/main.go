// Package main is the entry point of the scrim-lineup HTTP API.
//
// The service keeps per-player scrim history and turns it into lineup
// recommendations: quick and peak role assignments plus archetype
// compositions built from the template catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/scrimhub/scrim-lineup/config"
	"github.com/scrimhub/scrim-lineup/internal/bootstrap"
	httpserver "github.com/scrimhub/scrim-lineup/internal/interface/http"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	envFile := config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := bootstrap.NewLogger(cfg)
	log.Info("starting scrim-lineup API",
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("env_file", envFile),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORES, CACHE, HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	rt, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing stores...")
		if err := rt.Close(); err != nil {
			log.Error("failed to close stores", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimit
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.EnableCORS = len(cfg.HTTP.AllowedOrigins) > 0
	httpConfig.APIKeyHashes = cfg.HTTP.APIKeyHashes
	httpConfig.Version = cfg.App.Version

	if len(httpConfig.APIKeyHashes) == 0 && cfg.IsProduction() {
		log.Warn("no API keys configured, the API is open")
	}

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		RegisterPlayer:  rt.RegisterPlayer,
		RecordMatch:     rt.RecordMatch,
		SaveLineup:      rt.SaveLineup,
		GetPlayer:       rt.GetPlayer,
		PlayerScores:    rt.PlayerScores,
		RecommendLineup: rt.RecommendLineup,
		Compositions:    rt.Compositions,
		SavedLineups:    rt.SavedLineups,
		Logger:          log,
		HealthChecker:   rt.Health,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}
