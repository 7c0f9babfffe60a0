// Package main provides the Wikiplant web server router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Nexakreation/Wikiplant2/cmd/wikiplant-api/handlers"
	"github.com/Nexakreation/Wikiplant2/cmd/wikiplant-api/middleware"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

// RouterConfig holds router settings.
type RouterConfig struct {
	RequestTimeout time.Duration
	MaxUploadBytes int64
	AllowedOrigins []string
}

// Handlers groups the route handlers.
type Handlers struct {
	Pages  *handlers.PageHandler
	API    *handlers.APIHandler
	Health *handlers.HealthHandler
}

// NewRouter creates the router with all routes configured.
func NewRouter(logger *observability.Logger, cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/static/*", http.StripPrefix("/static/", handlers.Static()))

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		r.Use(middleware.MaxBytes(cfg.MaxUploadBytes + 1<<20))

		r.Get("/", h.Pages.Home)
		r.Get("/about", h.Pages.About)
		r.Post("/search", h.Pages.Search)
		r.Post("/identify", h.Pages.Identify)
		r.Post("/species", h.Pages.Species)
		r.Post("/details", h.Pages.Details)
		r.Get("/plant-details", h.Pages.PlantDetails)
		r.Post("/plant-details/forget", h.Pages.Forget)
		r.Get("/random-facts", h.Pages.RandomFacts)
		r.Get("/random-facts/more", h.Pages.MoreFacts)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.AllowedOrigins))

			r.Post("/identify-plant", h.API.IdentifyPlant)
			r.Post("/search-plant", h.API.SearchPlant)
			r.Post("/check-multiple-species", h.API.CheckMultipleSpecies)
			r.Post("/translate", h.API.Translate)
		})
	})

	return r
}
