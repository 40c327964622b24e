package cache

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore backs both the week lock and the read cache in a single process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	nowFn   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), nowFn: time.Now}
}

func (m *MemoryStore) liveLocked(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !m.nowFn().Before(entry.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func (m *MemoryStore) TryLock(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key = lockKeyPrefix + key
	if _, held := m.liveLocked(key); held {
		return false, nil
	}
	m.entries[key] = memoryEntry{value: []byte(token), expiresAt: expiry(m.nowFn(), ttl)}
	return true, nil
}

func (m *MemoryStore) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key = lockKeyPrefix + key
	if entry, held := m.liveLocked(key); held && string(entry.value) == token {
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.liveLocked(cacheKeyPrefix + key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(entry.value), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKeyPrefix+key] = memoryEntry{value: slices.Clone(value), expiresAt: expiry(m.nowFn(), ttl)}
	return nil
}

func (m *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, cacheKeyPrefix+prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

var (
	_ ports.WeekLocker = (*MemoryStore)(nil)
	_ ports.Cache      = (*MemoryStore)(nil)
)
