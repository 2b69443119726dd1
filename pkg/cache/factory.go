package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// Type represents the type of cache backend.
type Type string

const (
	// TypeMemory represents in-memory cache.
	TypeMemory Type = "memory"

	// TypeFile represents a directory of JSON files.
	TypeFile Type = "file"

	// TypeNATS represents NATS KV cache.
	TypeNATS Type = "nats"

	// TypeNone represents no caching.
	TypeNone Type = "none"
)

// Config configures the cache backend.
type Config struct {
	// Type is the cache backend type
	Type Type `env:"TYPE" envDefault:"memory"`

	// Memory cache configuration
	Memory MemoryConfig `envPrefix:"MEMORY_"`

	// File cache configuration
	File FileConfig `envPrefix:"FILE_"`

	// NATS KV cache configuration
	NATS NATSConfig `envPrefix:"NATS_"`
}

// MemoryConfig configures memory cache.
type MemoryConfig struct {
	// MaxSize is the maximum number of items in the cache
	MaxSize int `env:"MAX_SIZE" envDefault:"1000"`

	// CleanupInterval is the interval for cleaning up expired entries
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
}

// FileConfig configures the file cache.
type FileConfig struct {
	// Dir is the cache directory. Empty uses $HOME/.halc/cache.
	Dir string `env:"DIR"`
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() *Config {
	return &Config{
		Type: TypeMemory,
		Memory: MemoryConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: constants.DefaultCleanupInterval,
		},
		NATS: NATSConfig{
			Bucket:   constants.DefaultNATSBucket,
			Replicas: 1,
		},
	}
}

// NewFromConfig creates a store from configuration. The memory store's
// cleanup loop stops when ctx is done.
func NewFromConfig(ctx context.Context, config *Config) (Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Type {
	case TypeMemory, "":
		store := NewMemoryStore(config.Memory.MaxSize)
		store.StartCleanup(ctx, config.Memory.CleanupInterval)

		return store, nil

	case TypeFile:
		return NewFileStore(config.File.Dir)

	case TypeNATS:
		return NewNATSStore(ctx, &config.NATS)

	case TypeNone:
		return NewNoOpStore(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// Builder helps build cache configurations.
type Builder struct {
	config *Config
}

// NewBuilder creates a new cache builder.
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithType sets the cache type.
func (b *Builder) WithType(cacheType Type) *Builder {
	b.config.Type = cacheType

	return b
}

// WithMemoryConfig sets memory cache configuration.
func (b *Builder) WithMemoryConfig(maxSize int, cleanupInterval time.Duration) *Builder {
	b.config.Memory = MemoryConfig{
		MaxSize:         maxSize,
		CleanupInterval: cleanupInterval,
	}

	return b
}

// WithFileDir sets the file cache directory.
func (b *Builder) WithFileDir(dir string) *Builder {
	b.config.File.Dir = dir

	return b
}

// WithNATSConfig sets NATS cache configuration.
func (b *Builder) WithNATSConfig(config NATSConfig) *Builder {
	b.config.NATS = config

	return b
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() Config {
	return *b.config
}

// Build creates the store from the configuration.
func (b *Builder) Build(ctx context.Context) (Store, error) {
	return NewFromConfig(ctx, b.config)
}
