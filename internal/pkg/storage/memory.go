package storage

import (
	"context"
	"sync"
	"time"
)

type clocker interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MemoryOptions configures the in-process backend.
type MemoryOptions struct {
	// Clock drives expiry. Defaults to the system clock.
	Clock clocker
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory keeps values in a map. Data does not survive the process.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]memoryEntry
	clock clocker
}

// NewMemory returns an empty in-process store.
func NewMemory(opts MemoryOptions) *Memory {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}

	return &Memory{data: make(map[string]memoryEntry), clock: opts.Clock}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if entry.expired(m.clock.Now()) {
		m.purgeExpired(key)
		return nil, ErrNotFound
	}

	return append([]byte(nil), entry.value...), nil
}

// purgeExpired drops key only if the entry under it is still expired, so a
// Set racing with the read above survives.
func (m *Memory) purgeExpired(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.data[key]; ok && cur.expired(m.clock.Now()) {
		delete(m.data, key)
	}
}

// Set stores a copy of value.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.clock.Now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()

	return nil
}

// Delete removes keys.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.data, key)
	}
	m.mu.Unlock()

	return nil
}

// Close drops all data.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.data = make(map[string]memoryEntry)
	m.mu.Unlock()

	return nil
}
