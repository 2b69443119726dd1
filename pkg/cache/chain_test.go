package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/hal-client/pkg/cache"
)

var errBackendDown = errors.New("backend down")

type failingStore struct {
	cache.NoOpStore
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}

func (failingStore) Delete(context.Context, string) error {
	return errBackendDown
}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errBackendDown
}

func TestNoOpStore(t *testing.T) {
	t.Parallel()

	store := cache.NewNoOpStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Hour))
	assert.False(t, store.Has(ctx, "k"))

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrCacheDisabled)
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Clear(ctx))
}

func TestChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("backfills upper layers", func(t *testing.T) {
		t.Parallel()

		l1 := cache.NewMemoryStore(10)
		l2 := cache.NewMemoryStore(10)
		chain := cache.NewChain(time.Hour, l1, l2)

		require.NoError(t, l2.Set(ctx, "k", []byte("v"), time.Hour))
		assert.False(t, l1.Has(ctx, "k"))
		assert.True(t, chain.Has(ctx, "k"))

		value, err := chain.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), value)
		assert.True(t, l1.Has(ctx, "k"))
	})

	t.Run("miss in every layer", func(t *testing.T) {
		t.Parallel()

		chain := cache.NewChain(time.Hour, cache.NewMemoryStore(10), cache.NewNoOpStore())

		_, err := chain.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrKeyNotFoundInAnyCache)
		assert.True(t, cache.IsMiss(err))
	})

	t.Run("reports layer failures when nothing hits", func(t *testing.T) {
		t.Parallel()

		chain := cache.NewChain(time.Hour, cache.NewMemoryStore(10), failingStore{})

		_, err := chain.Get(ctx, "k")
		require.ErrorIs(t, err, errBackendDown)
		assert.False(t, cache.IsMiss(err))
	})

	t.Run("a hit below a failing layer wins", func(t *testing.T) {
		t.Parallel()

		l2 := cache.NewMemoryStore(10)
		require.NoError(t, l2.Set(ctx, "k", []byte("v"), time.Hour))

		value, err := cache.NewChain(time.Hour, failingStore{}, l2).Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), value)
	})

	t.Run("aggregates write failures", func(t *testing.T) {
		t.Parallel()

		l1 := cache.NewMemoryStore(10)
		chain := cache.NewChain(time.Hour, l1, failingStore{}, failingStore{})

		err := chain.Set(ctx, "k", []byte("v"), time.Hour)
		require.ErrorIs(t, err, errBackendDown)
		assert.Contains(t, err.Error(), "2 errors occurred")
		assert.True(t, l1.Has(ctx, "k"))

		err = chain.Delete(ctx, "k")
		require.ErrorIs(t, err, errBackendDown)
		assert.False(t, l1.Has(ctx, "k"))

		require.NoError(t, chain.Clear(ctx))
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tests := []struct {
		name    string
		config  *cache.Config
		want    any
		wantErr error
	}{
		{name: "default", config: nil, want: &cache.MemoryStore{}},
		{name: "memory", config: &cache.Config{Type: cache.TypeMemory}, want: &cache.MemoryStore{}},
		{name: "none", config: &cache.Config{Type: cache.TypeNone}, want: &cache.NoOpStore{}},
		{name: "file", config: &cache.Config{Type: cache.TypeFile, File: cache.FileConfig{Dir: t.TempDir()}}, want: &cache.FileStore{}},
		{name: "unsupported", config: &cache.Config{Type: "redis"}, wantErr: cache.ErrUnsupportedCacheType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := cache.NewFromConfig(ctx, tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	builder := cache.NewBuilder().
		WithType(cache.TypeMemory).
		WithMemoryConfig(5, time.Minute).
		WithNATSConfig(cache.NATSConfig{Bucket: "b"})

	config := builder.Config()
	assert.Equal(t, 5, config.Memory.MaxSize)
	assert.Equal(t, "b", config.NATS.Bucket)

	store, err := builder.Build(t.Context())
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, store)

	dir := t.TempDir()
	store, err = cache.NewBuilder().WithType(cache.TypeFile).WithFileDir(dir).Build(t.Context())
	require.NoError(t, err)

	fileStore, ok := store.(*cache.FileStore)
	require.True(t, ok)
	assert.Equal(t, dir, fileStore.Dir())
}
