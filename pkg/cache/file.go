package cache

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

const fileExtension = ".json"

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
}

type fileEntry struct {
	Key string `json:"key"`
	Entry
}

// NewFileStore creates a file store rooted at dir. An empty dir uses
// $HOME/.halc/cache.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}

		dir = filepath.Join(home, ".halc", "cache")
	}

	if err := os.MkdirAll(dir, constants.ConfigDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the cache directory.
func (f *FileStore) Dir() string {
	return f.dir
}

// Get retrieves a value.
func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := f.read(key)
	if err != nil {
		return nil, err
	}

	if entry.Expired() {
		_ = os.Remove(f.path(key))

		return nil, ErrExpired
	}

	return entry.Data, nil
}

// Set writes a value through a temporary file and a rename.
func (f *FileStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if len(value) > constants.MaxCacheValueSize {
		return fmt.Errorf("%w: %d bytes", ErrValueTooLarge, len(value))
	}

	data, err := json.MarshalIndent(fileEntry{Key: key, Entry: *NewEntry(value, ttl)}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	path := f.path(key)

	tmpPath := path + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tmpPath, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return nil
}

// Delete removes a value.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Clear removes every cache file.
func (f *FileStore) Clear(ctx context.Context) error {
	files, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), fileExtension) {
			continue
		}

		if err := os.Remove(filepath.Join(f.dir, file.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
	}

	return nil
}

// Has reports whether a live value exists.
func (f *FileStore) Has(ctx context.Context, key string) bool {
	entry, err := f.read(key)

	return err == nil && !entry.Expired()
}

func (f *FileStore) read(key string) (*fileEntry, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}

	// sanitized names can collide
	if entry.Key != key {
		return nil, ErrNotFound
	}

	return &entry, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+fileExtension)
}

// sanitizeKey makes key safe for use as a file name.
func sanitizeKey(key string) string {
	if len(key) > constants.MaxCacheKeyLength {
		return fmt.Sprintf("hash_%x", md5.Sum([]byte(key))) //nolint:gosec
	}

	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "?", "_", "&", "_", "=", "_",
		"#", "_", "<", "_", ">", "_", "|", "_", "*", "_", "\"", "_",
	)

	return replacer.Replace(key)
}
