package cache

import (
	"context"
	"os"
	"sync"
	"time"
)

type memoryEntry struct {
	path     string
	storedAt time.Time
}

// Memory is a mutex-guarded in-process cache. It is bounded: when full, the
// oldest entry is evicted on insert. A zero TTL disables age expiry.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	ttl        time.Duration
}

// Ensure Memory implements IdempotencyCache at compile time.
var _ IdempotencyCache = (*Memory)(nil)

func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}

	if m.ttl > 0 && time.Since(entry.storedAt) > m.ttl {
		delete(m.entries, key)
		return "", false, nil
	}

	// The file may have been deleted externally; treat that as a miss so the
	// caller re-synthesizes instead of serving a dangling path.
	if _, err := os.Stat(entry.path); err != nil {
		delete(m.entries, key)
		return "", false, nil
	}

	return entry.path, true, nil
}

func (m *Memory) Set(_ context.Context, key, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked()
	}

	m.entries[key] = memoryEntry{path: path, storedAt: time.Now()}
	return nil
}

// Len returns the number of entries currently held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
