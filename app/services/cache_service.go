package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/place-resolver/app/models"
)

type memoryEntry struct {
	result   *models.ChatResult
	storedAt time.Time
}

// CacheService is an in-process LRU cache with a fixed TTL.
type CacheService struct {
	cache   *expirable.LRU[string, memoryEntry]
	ttl     time.Duration
	counter hitCounter
}

// NewCacheService creates a CacheService holding at most size entries.
func NewCacheService(size int, ttl time.Duration) *CacheService {
	if size <= 0 {
		size = 1000
	}
	return &CacheService{
		cache: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		ttl:   ttl,
	}
}

// Get returns the cached answer for key.
func (cs *CacheService) Get(ctx context.Context, key string) (*models.ChatResult, bool, error) {
	if e, ok := cs.cache.Get(key); ok {
		cs.counter.hit()
		return e.result, true, nil
	}
	cs.counter.miss()
	return nil, false, nil
}

// Set stores result under key.
func (cs *CacheService) Set(ctx context.Context, key string, result *models.ChatResult) error {
	cs.cache.Add(key, memoryEntry{result: result, storedAt: time.Now()})
	return nil
}

// Delete removes key.
func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.cache.Remove(key)
	return nil
}

// Clear removes every entry and resets counters.
func (cs *CacheService) Clear(ctx context.Context) error {
	cs.cache.Purge()
	cs.counter.reset()
	return nil
}

// Size returns the number of live entries.
func (cs *CacheService) Size() int {
	return cs.cache.Len()
}

// InvalidateByDatasetVersion removes answers built from another dataset version.
func (cs *CacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) (int64, error) {
	var removed int64
	for _, key := range cs.cache.Keys() {
		e, ok := cs.cache.Peek(key)
		if !ok {
			continue
		}
		if e.result == nil || e.result.DatasetVersion != datasetVersion {
			cs.cache.Remove(key)
			removed++
		}
	}
	return removed, nil
}

// GetStats returns hit and size counters.
func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	return cs.counter.stats(CacheBackendMemory, int64(cs.cache.Len())), nil
}

// Exists reports whether key is cached without touching recency.
func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := cs.cache.Peek(key)
	return ok, nil
}

// GetTTL returns the remaining lifetime of key.
func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	e, ok := cs.cache.Peek(key)
	if !ok || cs.ttl <= 0 {
		return 0, nil
	}
	remaining := cs.ttl - time.Since(e.storedAt)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close is a no-op for the in-memory cache.
func (cs *CacheService) Close() error {
	return nil
}
