// Package app wires the Wikiplant clients and services from configuration.
// The web server and the CLI both build on it.
package app

import (
	"context"
	"fmt"

	"github.com/Nexakreation/Wikiplant2/internal/cache"
	"github.com/Nexakreation/Wikiplant2/internal/config"
	"github.com/Nexakreation/Wikiplant2/internal/facts"
	"github.com/Nexakreation/Wikiplant2/internal/generate"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/plants"
	"github.com/Nexakreation/Wikiplant2/internal/recognition"
	"github.com/Nexakreation/Wikiplant2/internal/session"
	"github.com/Nexakreation/Wikiplant2/internal/translate"
	"github.com/Nexakreation/Wikiplant2/internal/wikipedia"
)

// Services holds every wired client and service.
type Services struct {
	Cache      cache.Client
	Wikipedia  *wikipedia.Client
	Images     *wikipedia.Resolver
	Recognizer *recognition.Client
	Plants     *plants.Service
	Facts      *facts.Service
	Translator *translate.Client
	Sessions   *session.Store
}

// Close releases the cache.
func (s *Services) Close() error {
	return s.Cache.Close()
}

// NewCache opens the cache named by cfg.Driver.
func NewCache(ctx context.Context, cfg config.CacheConfig) (cache.Client, error) {
	if cfg.Driver == "redis" {
		c, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryClient(cfg.MaxEntries), nil
}

// New wires the services over store. A missing Gemini key leaves the
// language-model pipelines unconfigured; they fail with a config error when
// used.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, store cache.Client) (*Services, error) {
	wiki := wikipedia.NewClient(wikipedia.ClientConfig{
		BaseURL:   cfg.Wikipedia.BaseURL,
		UserAgent: cfg.Wikipedia.UserAgent,
		Timeout:   cfg.Wikipedia.Timeout,
	})
	resolver := wikipedia.NewResolver(wiki, store, cfg.Cache.TTL, logger)

	recognizer := recognition.NewClient(recognition.Config{
		Endpoint:     cfg.PlantID.Endpoint,
		APIKey:       cfg.PlantID.APIKey,
		SecondaryKey: cfg.PlantID.SecondaryKey,
		Timeout:      cfg.PlantID.Timeout,
	}, logger)

	// Left as nil interfaces, not typed nil pointers, when there is no key.
	var text, vision generate.Generator
	if cfg.Gemini.APIKey != "" {
		gemini, err := generate.NewGemini(ctx, generate.GeminiConfig{APIKey: cfg.Gemini.APIKey})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		textModel, visionModel := gemini.Model(cfg.Gemini.TextModel), gemini.Model(cfg.Gemini.VisionModel)
		logger.Info().
			Str("text_model", textModel.Name()).
			Str("vision_model", visionModel.Name()).
			Msg("Gemini models configured")
		text, vision = textModel, visionModel
	}

	plantSvc := plants.NewService(plants.Deps{
		Recognizer: recognizer,
		Vision:     vision,
		Text:       text,
		Images:     resolver,
		Pages:      wiki,
		Cache:      store,
	}, plants.Config{
		SpeciesConcurrency: cfg.Search.SpeciesConcurrency,
		SearchTTL:          cfg.Cache.TTL,
		Retry: generate.RetryConfig{
			MaxAttempts: cfg.Gemini.MaxAttempts,
			Pause:       cfg.Gemini.RetryPause,
		},
	}, logger)

	factSvc := facts.NewService(text, wiki, resolver, logger,
		facts.WithConcurrency(cfg.Search.SpeciesConcurrency))

	translator := translate.NewClient(translate.Config{
		Endpoint: cfg.Translate.Endpoint,
		APIKey:   cfg.Translate.APIKey,
	}, logger)

	sessions := session.NewStore(store, session.Config{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})

	return &Services{
		Cache:      store,
		Wikipedia:  wiki,
		Images:     resolver,
		Recognizer: recognizer,
		Plants:     plantSvc,
		Facts:      factSvc,
		Translator: translator,
		Sessions:   sessions,
	}, nil
}
