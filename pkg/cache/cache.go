// Package cache provides key/TTL byte stores used to cache HAL responses.
package cache

import (
	"context"
	"errors"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNotFound              = errors.New("key not found")
	ErrExpired               = errors.New("entry expired")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrValueTooLarge         = errors.New("value exceeds maximum cache value size")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrFileConfigRequired    = errors.New("file configuration required for file cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// Store is a key/TTL byte store. A zero TTL means the entry never expires.
// Set returns an error when the value could not be stored.
type Store interface {
	Has(ctx context.Context, key string) bool
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Entry is a stored value with its expiry.
type Entry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewEntry builds an entry expiring ttl from now.
func NewEntry(value []byte, ttl time.Duration) *Entry {
	entry := &Entry{Data: value}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	return entry
}

// Expired reports whether the entry is past its expiry.
func (e *Entry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// IsMiss reports whether err means the key is absent or expired.
func IsMiss(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrCacheDisabled) || errors.Is(err, ErrKeyNotFoundInAnyCache)
}
