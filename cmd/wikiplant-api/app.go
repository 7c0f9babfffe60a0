package main

import (
	"context"
	"net/http"

	"github.com/Nexakreation/Wikiplant2/cmd/wikiplant-api/handlers"
	"github.com/Nexakreation/Wikiplant2/internal/app"
	"github.com/Nexakreation/Wikiplant2/internal/cache"
	"github.com/Nexakreation/Wikiplant2/internal/config"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

// App is the wired server.
type App struct {
	Handler  http.Handler
	Services *app.Services
}

// Close releases the services.
func (a *App) Close() error {
	return a.Services.Close()
}

// NewApp wires the services and handlers from cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger *observability.Logger, store cache.Client) (*App, error) {
	svc, err := app.New(ctx, cfg, logger, store)
	if err != nil {
		return nil, err
	}

	renderer, err := handlers.NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	checks := map[string]handlers.Pinger{}
	if p, ok := store.(handlers.Pinger); ok {
		checks["cache"] = p
	}

	h := Handlers{
		Pages: handlers.NewPageHandler(logger, renderer, svc.Plants, svc.Facts, svc.Sessions, handlers.PageConfig{
			InitialFacts:   cfg.Search.InitialFacts,
			MoreFacts:      cfg.Search.MoreFacts,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
		}),
		API:    handlers.NewAPIHandler(logger, svc.Recognizer, svc.Plants, svc.Translator, cfg.Server.MaxUploadBytes),
		Health: handlers.NewHealthHandler(logger, cfg.Observability.ServiceName, checks, cfg.MissingKeys()),
	}

	router := NewRouter(logger, RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AllowedOrigins: []string{"*"},
	}, h)

	return &App{Handler: router, Services: svc}, nil
}
