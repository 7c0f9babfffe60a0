package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryClient_GetSet(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryClient(10)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_Expiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryClient(10)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), -time.Second))
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.purgeExpired(time.Now())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryClient_EvictsOldestWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryClient(2)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "b", []byte("22"), time.Hour))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryClient_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryClient(1)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestJSONHelpers(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewMemoryClient(10)
	defer c.Close()
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "Rosa"}, time.Minute))

	var got payload
	require.NoError(t, GetJSON(ctx, c, "p", &got))
	assert.Equal(t, "Rosa", got.Name)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
	assert.Error(t, GetJSON(ctx, c, "bad", &got))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "search:rosa canina", Key("search", "  Rosa \t Canina "))
	assert.Equal(t, Key("img", "Caf\u00e9"), Key("img", "Cafe\u0301"), "NFC normalisation")
}
