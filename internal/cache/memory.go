package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is a process-local cache. Expired entries are dropped lazily on
// read and by a periodic sweep.
type Memory[V any] struct {
	mu         sync.RWMutex
	items      map[string]memoryItem[V]
	defaultTTL time.Duration
	maxEntries int

	stop chan struct{}
	once sync.Once
}

// NewMemory creates a memory cache. maxEntries <= 0 means unbounded.
func NewMemory[V any](defaultTTL time.Duration, maxEntries int) *Memory[V] {
	m := &Memory[V]{
		items:      make(map[string]memoryItem[V]),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	if defaultTTL > 0 {
		go m.sweep(defaultTTL)
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, ErrNotFound
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return zero, ErrNotFound
	}
	return item.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; !exists && m.maxEntries > 0 && len(m.items) >= m.maxEntries {
		// evict an arbitrary entry
		for k := range m.items {
			delete(m.items, k)
			break
		}
	}
	m.items[key] = memoryItem[V]{value: value, expiresAt: expiresAt}
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory[V]) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory[V]) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for k, item := range m.items {
				if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
