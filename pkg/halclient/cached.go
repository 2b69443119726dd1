package halclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/cache"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// GetCached serves uri from the cache under key, fetching and storing it on
// a miss. A zero ttl uses the client's default. Error resources and empty
// resources are never stored. Store read failures count as misses.
func (c *Client) GetCached(ctx context.Context, uri, key string, opts *Options, ttl time.Duration) (*hal.Resource, error) {
	if c.cache == nil {
		return nil, &RuntimeError{Err: ErrNoCache}
	}

	if ttl <= 0 {
		ttl = c.cacheTTL
	}

	data, err := c.cache.Get(ctx, key)
	if err == nil {
		resource, err := hal.FromResponse(cachedResponse(data))
		if err == nil {
			c.logger.Debug("cache hit", map[string]interface{}{"key": key})

			return resource, nil
		}

		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else if !cache.IsMiss(err) {
		c.logger.Warn("cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	resource, err := c.Get(ctx, uri, opts)
	if err != nil {
		return nil, err
	}

	if resource.IsErrorResource() || resource.IsEmpty() {
		return resource, nil
	}

	encoded, err := json.Marshal(resource)
	if err != nil {
		return nil, &CacheNotSaved{Key: key, Err: err}
	}

	if err := c.cache.Set(ctx, key, encoded, ttl); err != nil {
		return nil, &CacheNotSaved{Key: key, Err: err}
	}

	return resource, nil
}

// ClearCacheKey drops key from the cache. It does nothing without a cache
// or when the key is absent.
func (c *Client) ClearCacheKey(ctx context.Context, key string) error {
	if c.cache == nil {
		return nil
	}

	if err := c.cache.Delete(ctx, key); err != nil && !cache.IsMiss(err) {
		return fmt.Errorf("failed to clear cache key %q: %w", key, err)
	}

	return nil
}

// cachedResponse synthesizes the 200 response a cache hit is parsed from.
func cachedResponse(data []byte) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", constants.MediaTypeHAL)

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: int64(len(data)),
	}
}
