package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/place-resolver/app/models"
)

// Cache backends
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendMongo  = "mongo"
	CacheBackendHybrid = "hybrid"
)

// CacheStats is a point-in-time view of one cache backend.
type CacheStats struct {
	Backend    string  `json:"backend"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService stores chat answers keyed by request fingerprint.
type ICacheService interface {
	// Get returns the cached answer for key
	Get(ctx context.Context, key string) (*models.ChatResult, bool, error)

	// Set stores an answer under key
	Set(ctx context.Context, key string, result *models.ChatResult) error

	// Delete removes key
	Delete(ctx context.Context, key string) error

	// Clear removes every entry
	Clear(ctx context.Context) error

	// InvalidateByDatasetVersion drops answers built from any other dataset version
	InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) (int64, error)

	// GetStats returns hit and size counters
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists reports whether key is cached
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close releases backend connections
	Close() error
}

// hitCounter tracks hits and misses for a backend.
type hitCounter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *hitCounter) hit()  { c.hits.Add(1) }
func (c *hitCounter) miss() { c.misses.Add(1) }

func (c *hitCounter) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *hitCounter) stats(backend string, items int64) *CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return &CacheStats{
		Backend:    backend,
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: items,
	}
}

// NoopCacheService is used when caching is disabled.
type NoopCacheService struct{}

func (NoopCacheService) Get(context.Context, string) (*models.ChatResult, bool, error) {
	return nil, false, nil
}
func (NoopCacheService) Set(context.Context, string, *models.ChatResult) error { return nil }
func (NoopCacheService) Delete(context.Context, string) error                  { return nil }
func (NoopCacheService) Clear(context.Context) error                           { return nil }
func (NoopCacheService) InvalidateByDatasetVersion(context.Context, string) (int64, error) {
	return 0, nil
}
func (NoopCacheService) GetStats(context.Context) (*CacheStats, error) {
	return &CacheStats{Backend: CacheBackendNone}, nil
}
func (NoopCacheService) Exists(context.Context, string) (bool, error)          { return false, nil }
func (NoopCacheService) GetTTL(context.Context, string) (time.Duration, error) { return 0, nil }
func (NoopCacheService) Close() error                                          { return nil }
