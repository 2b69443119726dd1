package cache

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
)

// NoOpStore is a store that does nothing (no caching).
type NoOpStore struct{}

// NewNoOpStore creates a new no-op store.
func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

// Get always returns ErrCacheDisabled.
func (NoOpStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (NoOpStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (NoOpStore) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (NoOpStore) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (NoOpStore) Has(ctx context.Context, key string) bool {
	return false
}

// Chain layers stores (L1, L2, ...). Reads fall through and backfill the
// faster layers; writes go to every layer.
type Chain struct {
	stores []Store
	ttl    time.Duration
}

// NewChain creates a chain. backfillTTL is used when a lower layer hit is
// copied into upper layers.
func NewChain(backfillTTL time.Duration, stores ...Store) *Chain {
	return &Chain{stores: stores, ttl: backfillTTL}
}

// Get retrieves a value from the first layer holding it. When no layer
// holds it, layer failures other than misses are returned aggregated.
func (c *Chain) Get(ctx context.Context, key string) ([]byte, error) {
	var result *multierror.Error

	for i, store := range c.stores {
		value, err := store.Get(ctx, key)
		if err != nil {
			if !IsMiss(err) {
				result = multierror.Append(result, err)
			}

			continue
		}

		for j := range i {
			_ = c.stores[j].Set(ctx, key, value, c.ttl)
		}

		return value, nil
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set stores a value in every layer. Failures are aggregated.
func (c *Chain) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var result *multierror.Error

	for _, store := range c.stores {
		if err := store.Set(ctx, key, value, ttl); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Delete removes a value from every layer.
func (c *Chain) Delete(ctx context.Context, key string) error {
	var result *multierror.Error

	for _, store := range c.stores {
		if err := store.Delete(ctx, key); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Clear empties every layer.
func (c *Chain) Clear(ctx context.Context) error {
	var result *multierror.Error

	for _, store := range c.stores {
		if err := store.Clear(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Has reports whether any layer holds the key.
func (c *Chain) Has(ctx context.Context, key string) bool {
	for _, store := range c.stores {
		if store.Has(ctx, key) {
			return true
		}
	}

	return false
}
