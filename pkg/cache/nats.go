package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// NATSConfig configures the JetStream key-value backend.
type NATSConfig struct {
	// URL of the NATS server
	URL string `env:"URL" envDefault:"nats://127.0.0.1:4222"`

	// Bucket is the key-value bucket name
	Bucket string `env:"BUCKET" envDefault:"hal-cache"`

	// TTL is the bucket-wide maximum age. Zero keeps entries until their
	// own expiry.
	TTL time.Duration `env:"BUCKET_TTL"`

	// Replicas is the bucket replication factor
	Replicas int `env:"REPLICAS" envDefault:"1"`

	// Name identifies the connection on the server
	Name string `env:"CLIENT_NAME" envDefault:"hal-client"`
}

// NATSStore stores values in a JetStream key-value bucket. Keys are
// base64url encoded to satisfy the bucket key alphabet.
type NATSStore struct {
	kv   jetstream.KeyValue
	conn *nats.Conn
}

// NewNATSStore connects to NATS and opens (or creates) the bucket.
func NewNATSStore(ctx context.Context, config *NATSConfig) (*NATSStore, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{}
	if config.Name != "" {
		opts = append(opts, nats.Name(config.Name))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "HAL response cache",
		TTL:         config.TTL,
		Replicas:    max(config.Replicas, 1),
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to open key-value bucket %s: %w", bucket, err)
	}

	return &NATSStore{kv: kv, conn: conn}, nil
}

// NewNATSStoreFromKeyValue wraps an already opened bucket. Close is then a
// no-op.
func NewNATSStoreFromKeyValue(kv jetstream.KeyValue) *NATSStore {
	return &NATSStore{kv: kv}
}

// Get retrieves a value.
func (n *NATSStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.entry(ctx, key)
	if err != nil {
		return nil, err
	}

	if entry.Expired() {
		_ = n.kv.Delete(ctx, encodeKey(key))

		return nil, ErrExpired
	}

	return entry.Data, nil
}

// Set stores a value.
func (n *NATSStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if len(value) > constants.MaxCacheValueSize {
		return fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(value))
	}

	data, err := json.Marshal(NewEntry(value, ttl))
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if _, err := n.kv.Put(ctx, encodeKey(key), data); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

// Delete removes a value.
func (n *NATSStore) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, encodeKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Clear removes every key in the bucket.
func (n *NATSStore) Clear(ctx context.Context) error {
	lister, err := n.kv.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to list cache keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		if err := n.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
	}

	return nil
}

// Has reports whether a live value exists.
func (n *NATSStore) Has(ctx context.Context, key string) bool {
	entry, err := n.entry(ctx, key)

	return err == nil && !entry.Expired()
}

// Close drains the connection opened by NewNATSStore.
func (n *NATSStore) Close() error {
	if n.conn == nil {
		return nil
	}

	return n.conn.Drain()
}

func (n *NATSStore) entry(ctx context.Context, key string) (*Entry, error) {
	kve, err := n.kv.Get(ctx, encodeKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(kve.Value(), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	return &entry, nil
}

func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
