package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVER_PORT", "SERVER_HOST", "REDIS_URL", "PLANT_ID_API_KEY", "PLANT_ID_API_KEY_SECONDARY",
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "NEXT_PUBLIC_GOOGLE_API_KEY", "GOOGLE_TRANSLATE_API_KEY",
		"WIKIPEDIA_BASE_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 5, cfg.Gemini.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Gemini.RetryPause)
	assert.Equal(t, "https://en.wikipedia.org", cfg.Wikipedia.BaseURL)
	assert.ElementsMatch(t, []string{"PLANT_ID_API_KEY", "GOOGLE_API_KEY", "GOOGLE_TRANSLATE_API_KEY"}, cfg.MissingKeys())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "wikiplant.yaml")
	yamlDoc := `
server:
  port: 8080
gemini:
  text_model: gemini-2.0-flash
  max_attempts: 3
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("PLANT_ID_API_KEY", "primary")
	t.Setenv("PLANT_ID_API_KEY_SECONDARY", "secondary")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.TextModel)
	assert.Equal(t, 3, cfg.Gemini.MaxAttempts)
	assert.Equal(t, "primary", cfg.PlantID.APIKey)
	assert.Equal(t, "secondary", cfg.PlantID.SecondaryKey)
	assert.Equal(t, "gem", cfg.Gemini.APIKey)
	assert.Equal(t, "gem", cfg.Translate.APIKey, "translate falls back to the Google key")
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
	assert.Empty(t, cfg.MissingKeys())
}

func TestLoad_RedisURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://:pw@host:6380/2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "host:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, "pw", cfg.Cache.Redis.Password)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)

	t.Setenv("REDIS_URL", "http://host:6379")
	_, err = Load("")
	assert.ErrorContains(t, err, "parse REDIS_URL")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, true},
		{"zero attempts", func(c *Config) { c.Gemini.MaxAttempts = 0 }, true},
		{"negative pause", func(c *Config) { c.Gemini.RetryPause = -time.Second }, true},
		{"no upload budget", func(c *Config) { c.Server.MaxUploadBytes = 0 }, true},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
