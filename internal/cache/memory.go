package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryCache is an in-process cache for single-instance deployments and tests.
type MemoryCache struct {
	store *ristretto.Cache[string, []byte]
}

// NewMemoryCache creates a cache bounded to roughly maxItems entries.
func NewMemoryCache(maxItems int64) (*MemoryCache, error) {
	if maxItems <= 0 {
		maxItems = 10_000
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        maxItems * 10,
		MaxCost:            maxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCache{store: store}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := m.store.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return value, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.store.SetWithTTL(key, value, 1, ttl)
	// Sets are buffered; wait so the entry is visible to the next Get.
	m.store.Wait()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.store.Del(key)
	}
	return nil
}

func (m *MemoryCache) Close() error {
	m.store.Close()
	return nil
}
