package listcache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/screensync/backend/subm"
)

// MemCache is a process-local cache. Each server instance keeps its own
// copy, so invalidation only reaches the instance that processed the batch.
type MemCache struct {
	cache *cache.Cache
}

func NewMemCache(ttl time.Duration) *MemCache {
	return &MemCache{cache: cache.New(ttl, 2*ttl)}
}

func (m *MemCache) Get(_ context.Context) ([]subm.Subm, bool) {
	cached, found := m.cache.Get(listKey)
	if !found {
		return nil, false
	}
	subms, ok := cached.([]subm.Subm)
	return subms, ok
}

func (m *MemCache) Set(_ context.Context, subms []subm.Subm) {
	m.cache.SetDefault(listKey, subms)
}

func (m *MemCache) Invalidate(_ context.Context) error {
	m.cache.Delete(listKey)
	return nil
}
