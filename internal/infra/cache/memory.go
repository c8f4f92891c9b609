package cache

import (
	"context"
	"sync"
	"time"

	"staybook/internal/app/middleware"
)

// Memory is a process-local QueryCache for single-instance deployments and
// tests. Entries from older generations are dropped lazily on Bump.
type Memory struct {
	mu      sync.Mutex
	gen     int64
	entries map[string]memoryEntry
	Now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Generation(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen, nil
}

func (m *Memory) Bump(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.entries = make(map[string]memoryEntry)
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

var _ middleware.QueryCache = (*Memory)(nil)
