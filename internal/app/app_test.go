package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexakreation/Wikiplant2/internal/config"
	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
	"github.com/Nexakreation/Wikiplant2/internal/recognition"
)

func TestNew_WithoutKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	store, err := NewCache(context.Background(), cfg.Cache)
	require.NoError(t, err)

	svc, err := New(context.Background(), cfg, observability.Nop(), store)
	require.NoError(t, err)
	defer svc.Close()

	assert.False(t, svc.Recognizer.Configured())

	_, err = svc.Plants.Search(context.Background(), "rose")
	assert.Equal(t, domain.ErrorTypeConfig, domain.TypeOf(err))

	_, err = svc.Plants.Identify(context.Background(), recognition.Upload{Data: []byte("img")})
	assert.Equal(t, domain.ErrorTypeConfig, domain.TypeOf(err))

	_, err = svc.Translator.TranslateStrict(context.Background(), "leaf", "fr")
	assert.Equal(t, domain.ErrorTypeConfig, domain.TypeOf(err))
	assert.Equal(t, "leaf", svc.Translator.Translate(context.Background(), "leaf", "fr"))
}

func TestNew_WithKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Gemini.APIKey = "gemini-key"
	cfg.PlantID.APIKey = "plant-key"
	store, err := NewCache(context.Background(), cfg.Cache)
	require.NoError(t, err)

	svc, err := New(context.Background(), cfg, observability.Nop(), store)
	require.NoError(t, err)
	defer svc.Close()

	assert.True(t, svc.Recognizer.Configured())
	assert.NotNil(t, svc.Plants)
	assert.NotNil(t, svc.Facts)
	assert.NotNil(t, svc.Sessions)
}

func TestNewCache_RedisUnreachable(t *testing.T) {
	cfg := config.DefaultConfig().Cache
	cfg.Driver = "redis"
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := NewCache(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}
