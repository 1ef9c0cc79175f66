package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a mutex-guarded in-process Store with periodic cleanup of
// expired entries.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	tags    map[string]map[string]struct{}

	cleanupEvery time.Duration
	now          func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	tags      []string
}

type MemoryOption func(*Memory)

func WithCleanupEvery(d time.Duration) MemoryOption {
	return func(m *Memory) { m.cleanupEvery = d }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:      make(map[string]*memoryEntry),
		tags:         make(map[string]map[string]struct{}),
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(ent.expiresAt) {
		m.removeLocked(key, ent)
		return nil, false
	}
	return ent.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ent, ok := m.entries[key]; ok {
		m.removeLocked(key, ent)
	}
	m.entries[key] = &memoryEntry{
		value:     value,
		expiresAt: m.now().Add(ttl),
		tags:      tags,
	}
	for _, tag := range tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tag := range tags {
		for key := range m.tags[tag] {
			if ent, ok := m.entries[key]; ok {
				m.removeLocked(key, ent)
			}
		}
		delete(m.tags, tag)
	}
	return nil
}

func (m *Memory) Cleanup() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, ent := range m.entries {
		if now.After(ent.expiresAt) {
			m.removeLocked(key, ent)
		}
	}
}

// StartJanitor evicts expired entries periodically until the context is done.
func (m *Memory) StartJanitor(ctx context.Context) {
	if m.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(m.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Cleanup()
			}
		}
	}()
}

// removeLocked drops an entry and its tag index references. Caller holds mu.
func (m *Memory) removeLocked(key string, ent *memoryEntry) {
	delete(m.entries, key)
	for _, tag := range ent.tags {
		if keys, ok := m.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.tags, tag)
			}
		}
	}
}
