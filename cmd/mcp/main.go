// Package main serves the lineup tools over the Model Context Protocol
// (streamable HTTP transport) against the same stores as the API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/scrimhub/scrim-lineup/config"
	"github.com/scrimhub/scrim-lineup/internal/bootstrap"
	"github.com/scrimhub/scrim-lineup/internal/interface/http/handlers"
	"github.com/scrimhub/scrim-lineup/internal/interface/mcpserver"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := bootstrap.NewLogger(cfg).With(logger.Component("mcp"))

	rt, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := mcpserver.New(cfg.App.Name, cfg.App.Version, mcpserver.Dependencies{
		PlayerScores:    rt.PlayerScores,
		RecommendLineup: rt.RecommendLineup,
		Compositions:    rt.Compositions,
		SavedLineups:    rt.SavedLineups,
		Logger:          log,
	})

	auth := handlers.NewAPIKeyAuth(handlers.DefaultAPIKeyHeader, cfg.HTTP.APIKeyHashes)
	if !auth.Enabled() {
		log.Warn("no API keys configured, the MCP endpoint is open")
	}

	httpServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.MCPPort)),
		Handler:     srv.Handler(auth),
		ReadTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout: cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("MCP server listening",
			logger.String("address", httpServer.Addr),
			logger.String("path", mcpserver.DefaultPath),
			logger.Int("tools", len(srv.Tools())))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("mcp server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
