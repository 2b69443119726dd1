package halclient

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/internal/transport"
	"github.com/fivetwenty-io/hal-client/pkg/cache"
)

// EnvPrefix prefixes every variable read by ConfigFromEnv.
const EnvPrefix = "HAL_"

// Config holds client configuration.
type Config struct {
	RootURL      string        `env:"ROOT_URL"`
	UserAgent    string        `env:"USER_AGENT"`
	DefaultTTL   time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	RetryMax     int           `env:"RETRY_MAX" envDefault:"0"`
	RetryWaitMin time.Duration `env:"RETRY_WAIT_MIN" envDefault:"1s"`
	RetryWaitMax time.Duration `env:"RETRY_WAIT_MAX" envDefault:"10s"`
	Debug        bool          `env:"DEBUG"`

	// AddRequestID turns on X-Request-Id for every call.
	AddRequestID bool `env:"ADD_REQUEST_ID"`

	// Cache selects the GetCached backend. Type "none" disables it.
	Cache cache.Config `envPrefix:"CACHE_"`

	Logger Logger

	// RetryLogger receives retry diagnostics, typically an hclog logger.
	RetryLogger retryablehttp.LeveledLogger
}

// DefaultConfig returns the defaults used when a field is left empty.
func DefaultConfig() *Config {
	return &Config{
		DefaultTTL:   constants.DefaultCacheTTL,
		HTTPTimeout:  constants.DefaultHTTPTimeout,
		RetryMax:     constants.DefaultRetryMax,
		RetryWaitMin: constants.DefaultRetryWaitMin,
		RetryWaitMax: constants.DefaultRetryWaitMax,
		Cache:        *cache.DefaultConfig(),
	}
}

// ConfigFromEnv reads configuration from HAL_* variables, for example
// HAL_ROOT_URL, HAL_HTTP_TIMEOUT and HAL_CACHE_TYPE.
func ConfigFromEnv() (*Config, error) {
	config := DefaultConfig()

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return config, nil
}

// NewFromConfig creates a client with the retrying transport and, unless
// the cache type is "none", a cache store. The cache's background work
// stops when ctx is done.
func NewFromConfig(ctx context.Context, config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	transportOpts := []transport.Option{
		transport.WithTimeout(config.HTTPTimeout),
		transport.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax),
		transport.WithDebug(config.Debug),
	}

	if config.Logger != nil {
		transportOpts = append(transportOpts, transport.WithLogger(config.Logger))
	}

	if config.RetryLogger != nil {
		transportOpts = append(transportOpts, transport.WithLeveledLogger(config.RetryLogger))
	}

	clientOpts := []ClientOption{
		WithTransport(NewDefaultTransport(transportOpts...)),
		WithLogger(config.Logger),
	}

	if config.UserAgent != "" {
		clientOpts = append(clientOpts, WithUserAgent(config.UserAgent))
	}

	if config.AddRequestID {
		clientOpts = append(clientOpts, WithDefaultOptions(&Options{AddRequestID: Bool(true)}))
	}

	if config.Cache.Type != "" && config.Cache.Type != cache.TypeNone {
		store, err := cache.NewFromConfig(ctx, &config.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}

		clientOpts = append(clientOpts, WithCache(store, config.DefaultTTL))
	}

	return New(config.RootURL, append(clientOpts, opts...)...)
}
