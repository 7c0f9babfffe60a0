// Package config provides configuration loading for Wikiplant.
// Supports a YAML file, a .env file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for Wikiplant.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Cache         CacheConfig         `yaml:"cache"`
	PlantID       PlantIDConfig       `yaml:"plant_id"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Wikipedia     WikipediaConfig     `yaml:"wikipedia"`
	Translate     TranslateConfig     `yaml:"translate"`
	Search        SearchConfig        `yaml:"search"`
	Session       SessionConfig       `yaml:"session"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// PlantIDConfig holds Plant.id recognition API settings.
type PlantIDConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	APIKey       string        `yaml:"-"`
	SecondaryKey string        `yaml:"-"`
	Timeout      time.Duration `yaml:"timeout"`
}

// GeminiConfig holds generative-language API settings.
type GeminiConfig struct {
	APIKey      string        `yaml:"-"`
	TextModel   string        `yaml:"text_model"`
	VisionModel string        `yaml:"vision_model"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryPause  time.Duration `yaml:"retry_pause"`
}

// WikipediaConfig holds Wikipedia API settings.
type WikipediaConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TranslateConfig holds Google Translate settings.
type TranslateConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"-"`
}

// SearchConfig holds pipeline settings.
type SearchConfig struct {
	SpeciesConcurrency int `yaml:"species_concurrency"`
	InitialFacts       int `yaml:"initial_facts"`
	MoreFacts          int `yaml:"more_facts"`
}

// SessionConfig holds session cookie settings.
type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from an optional .env file and an optional YAML
// file, then applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             3000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     90 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   80 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   10 << 20,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        30 * time.Minute,
			MaxEntries: 5000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
				Prefix:   "wikiplant:",
			},
		},
		PlantID: PlantIDConfig{
			Endpoint: "https://api.plant.id/v2/identify",
			Timeout:  30 * time.Second,
		},
		Gemini: GeminiConfig{
			TextModel:   "gemini-1.5-pro",
			VisionModel: "gemini-1.5-flash",
			MaxAttempts: 5,
			RetryPause:  time.Second,
		},
		Wikipedia: WikipediaConfig{
			BaseURL:   "https://en.wikipedia.org",
			UserAgent: "Wikiplant/1.0 (plant identification)",
			Timeout:   15 * time.Second,
		},
		Translate: TranslateConfig{
			Endpoint: "https://translation.googleapis.com/language/translate/v2",
		},
		Search: SearchConfig{
			SpeciesConcurrency: 4,
			InitialFacts:       5,
			MoreFacts:          3,
		},
		Session: SessionConfig{
			CookieName: "wikiplant_session",
			TTL:        2 * time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "wikiplant",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Gemini.MaxAttempts < 1 {
		return fmt.Errorf("gemini max_attempts must be at least 1")
	}

	if c.Gemini.RetryPause < 0 {
		return fmt.Errorf("gemini retry_pause must not be negative")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	return nil
}

// MissingKeys lists the upstream credentials that are not configured.
func (c *Config) MissingKeys() []string {
	var missing []string
	if c.PlantID.APIKey == "" {
		missing = append(missing, "PLANT_ID_API_KEY")
	}
	if c.Gemini.APIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if c.Translate.APIKey == "" {
		missing = append(missing, "GOOGLE_TRANSLATE_API_KEY")
	}
	return missing
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		opts, err := redis.ParseURL(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = opts.Addr
		cfg.Cache.Redis.Password = opts.Password
		cfg.Cache.Redis.DB = opts.DB
	}

	if v := os.Getenv("PLANT_ID_API_KEY"); v != "" {
		cfg.PlantID.APIKey = v
	}

	if v := os.Getenv("PLANT_ID_API_KEY_SECONDARY"); v != "" {
		cfg.PlantID.SecondaryKey = v
	}

	cfg.Gemini.APIKey = firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY", "NEXT_PUBLIC_GOOGLE_API_KEY")

	cfg.Translate.APIKey = firstEnv("GOOGLE_TRANSLATE_API_KEY")
	if cfg.Translate.APIKey == "" {
		cfg.Translate.APIKey = cfg.Gemini.APIKey
	}

	if v := os.Getenv("WIKIPEDIA_BASE_URL"); v != "" {
		cfg.Wikipedia.BaseURL = strings.TrimRight(v, "/")
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
