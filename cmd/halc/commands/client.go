package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/hal-client/internal/logging"
	"github.com/fivetwenty-io/hal-client/pkg/cache"
	"github.com/fivetwenty-io/hal-client/pkg/halclient"
)

const (
	defaultLogLevel = "warn"
	debugLogLevel   = "debug"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// newLogger builds the CLI logger on stderr and a client configuration
// wired to it. --verbose forces debug level. With hclog the same logger
// also receives retry diagnostics.
func newLogger(cmd *cobra.Command, config *Config) (logging.Logger, halclient.Config) {
	level := config.Log.Level
	if level == "" {
		level = defaultLogLevel
	}

	if viper.GetBool("verbose") {
		level = debugLogLevel
	}

	logger, retryLogger := logging.New(logging.Config{
		Format: config.Log.Format,
		Level:  level,
		Output: cmd.ErrOrStderr(),
		Name:   "halc",
	})

	clientConfig := halclient.DefaultConfig()
	clientConfig.Logger = logger
	clientConfig.Debug = viper.GetBool("verbose")

	if retryLogger != nil {
		clientConfig.RetryLogger = retryLogger
	}

	return logger, *clientConfig
}

// cacheConfig maps the CLI cache settings. The CLI caches on disk unless
// told otherwise, since a memory cache dies with the process.
func cacheConfig(config *Config) cache.Config {
	cacheConfig := *cache.DefaultConfig()
	cacheConfig.Type = cache.TypeFile

	if config.Cache.Type != "" {
		cacheConfig.Type = cache.Type(config.Cache.Type)
	}

	cacheConfig.File.Dir = config.Cache.Dir

	if config.Cache.NATSURL != "" {
		cacheConfig.NATS.URL = config.Cache.NATSURL
	}

	if config.Cache.NATSBucket != "" {
		cacheConfig.NATS.Bucket = config.Cache.NATSBucket
	}

	return cacheConfig
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfigValue, key, err)
	}

	return duration, nil
}

// newHALClient builds a client from the stored configuration and the
// global flags.
func newHALClient(cmd *cobra.Command) (*halclient.Client, error) {
	config := loadConfig()
	logger, clientConfig := newLogger(cmd, config)

	clientConfig.RootURL = config.API
	clientConfig.UserAgent = "halc/" + halclient.Version
	clientConfig.RetryMax = config.RetryMax
	clientConfig.Cache = cacheConfig(config)

	var err error

	clientConfig.HTTPTimeout, err = parseDuration("timeout", config.Timeout, clientConfig.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	clientConfig.DefaultTTL, err = parseDuration("cache.ttl", config.Cache.TTL, clientConfig.DefaultTTL)
	if err != nil {
		return nil, err
	}

	opts := []halclient.ClientOption{
		halclient.WithObserver(halclient.NewLoggingObserver(logger)),
	}

	if config.Token != "" {
		opts = append(opts, halclient.WithHeader("Authorization", "Bearer "+config.Token))
	}

	for name, value := range config.Headers {
		opts = append(opts, halclient.WithHeader(name, value))
	}

	client, err := halclient.NewFromConfig(commandContext(cmd), &clientConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// newCacheStore opens the configured cache store directly.
func newCacheStore(cmd *cobra.Command) (cache.Store, error) {
	settings := cacheConfig(loadConfig())

	store, err := cache.NewBuilder().
		WithType(settings.Type).
		WithFileDir(settings.File.Dir).
		WithNATSConfig(settings.NATS).
		Build(commandContext(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return store, nil
}
