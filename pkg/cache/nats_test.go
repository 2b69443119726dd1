package cache_test

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/hal-client/pkg/cache"
)

func TestNATSStore_Integration(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping JetStream cache test")
	}

	ctx := t.Context()

	store, err := cache.NewNATSStore(ctx, &cache.NATSConfig{
		URL:    url,
		Bucket: "hal-cache-test-" + uuid.NewString()[:8],
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	key := "/users?page=1"

	require.NoError(t, store.Set(ctx, key, []byte(`{"a":1}`), time.Hour))
	assert.True(t, store.Has(ctx, key))

	value, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(value))

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Get(ctx, key)
	require.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err = store.Get(ctx, "short")
	require.ErrorIs(t, err, cache.ErrExpired)

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, store.Clear(ctx))
	assert.False(t, store.Has(ctx, "a"))
}

func TestNewNATSStore_RequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := cache.NewNATSStore(t.Context(), nil)
	require.ErrorIs(t, err, cache.ErrNATSConfigRequired)
}
