// Package main provides the Wikiplant web server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nexakreation/Wikiplant2/internal/app"
	"github.com/Nexakreation/Wikiplant2/internal/config"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Driver).
		Str("text_model", cfg.Gemini.TextModel).
		Str("vision_model", cfg.Gemini.VisionModel).
		Msg("Starting Wikiplant")

	for _, key := range cfg.MissingKeys() {
		logger.Warn().Str("key", key).Msg("API key not configured, dependent features will return errors")
	}

	ctx := context.Background()
	store, err := app.NewCache(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create cache")
	}

	server, err := NewApp(ctx, cfg, logger, store)
	if err != nil {
		store.Close()
		logger.Fatal().Err(err).Msg("Failed to initialise application")
	}
	defer func() {
		if err := server.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close cache")
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
