package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process store bounded by entry count.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
	seq     uint64
}

type memoryEntry struct {
	*Entry
	seq uint64
}

// NewMemoryStore creates a memory store holding at most maxSize entries.
// A non-positive maxSize means unbounded.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a value.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if entry.Expired() {
		m.mu.Lock()
		if current, ok := m.entries[key]; ok && current == entry {
			delete(m.entries, key)
		}
		m.mu.Unlock()

		return nil, ErrExpired
	}

	return append([]byte(nil), entry.Data...), nil
}

// Set stores a value, evicting when the store is full.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.maxSize > 0 && len(m.entries) >= m.maxSize {
		m.evict()
	}

	m.seq++
	m.entries[key] = &memoryEntry{
		Entry: NewEntry(append([]byte(nil), value...), ttl),
		seq:   m.seq,
	}

	return nil
}

// Delete removes a value.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

// Clear removes every value.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]*memoryEntry)
	m.mu.Unlock()

	return nil
}

// Has reports whether a live value exists.
func (m *MemoryStore) Has(ctx context.Context, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]

	return ok && !entry.Expired()
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Cleanup drops expired entries.
func (m *MemoryStore) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if entry.Expired() {
			delete(m.entries, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (m *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// evict drops expired entries, then the oldest one if still full. Caller
// holds the write lock.
func (m *MemoryStore) evict() {
	for key, entry := range m.entries {
		if entry.Expired() {
			delete(m.entries, key)
		}
	}

	if len(m.entries) < m.maxSize {
		return
	}

	var (
		oldestKey string
		oldestSeq uint64
		found     bool
	)

	for key, entry := range m.entries {
		if !found || entry.seq < oldestSeq {
			oldestKey, oldestSeq, found = key, entry.seq, true
		}
	}

	if found {
		delete(m.entries, oldestKey)
	}
}
