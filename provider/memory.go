package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var memCacheCount atomic.Int64

type memCacheEntry struct {
	expires time.Time
	value   []byte
}

// MemCache is an in-process CacheProvider backed by a map.
// It is meant for tests and single-process deployments.
type MemCache struct {
	mutex     *sync.RWMutex
	db        map[string]memCacheEntry
	namespace string
}

// NewMemCache creates an in-memory provider with a process-unique namespace.
func NewMemCache() *MemCache {
	return &MemCache{
		mutex:     &sync.RWMutex{},
		db:        make(map[string]memCacheEntry),
		namespace: fmt.Sprintf("mem%d", memCacheCount.Add(1)),
	}
}

func (m *MemCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	entry, ok := m.db[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expires) {
		delete(m.db, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemCache) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[key] = memCacheEntry{expires: time.Now().Add(ttl), value: value}
	return nil
}

func (m *MemCache) Purge(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, key)
	return nil
}

func (m *MemCache) Namespace() string {
	return m.namespace
}

func (m *MemCache) Connect(context.Context) error { return nil }

func (m *MemCache) Close() error { return nil }
