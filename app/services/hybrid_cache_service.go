package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/place-resolver/app/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HybridCacheService layers a fast cache (Redis) over a persistent one
// (MongoDB). Reads fall through; writes go to both tiers concurrently.
type HybridCacheService struct {
	fast   ICacheService
	slow   ICacheService
	logger *zap.Logger
}

// NewHybridCacheService creates a two-tier cache.
func NewHybridCacheService(fast, slow ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		fast:   fast,
		slow:   slow,
		logger: logger,
	}
}

// Get reads the fast tier, then the slow one. A slow-tier hit is copied back
// to the fast tier in the background.
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.ChatResult, bool, error) {
	result, found, err := hcs.fast.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Fast cache failed, falling back", zap.Error(err))
	} else if found {
		return result, true, nil
	}

	result, found, err = hcs.slow.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.fast.Set(bgCtx, key, result); err != nil {
			hcs.logger.Warn("Backfill to fast cache failed", zap.Error(err), zap.String("key", key))
		}
	}()

	return result, true, nil
}

// Set writes to both tiers.
func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.ChatResult) error {
	return hcs.both(ctx, "set", func(ctx context.Context, c ICacheService) error {
		return c.Set(ctx, key, result)
	})
}

// Delete removes key from both tiers.
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(ctx, "delete", func(ctx context.Context, c ICacheService) error {
		return c.Delete(ctx, key)
	})
}

// Clear empties both tiers.
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(ctx, "clear", func(ctx context.Context, c ICacheService) error {
		return c.Clear(ctx)
	}); err != nil {
		return err
	}
	hcs.logger.Info("Hybrid cache cleared")
	return nil
}

// InvalidateByDatasetVersion invalidates both tiers and returns the number
// of entries removed from the persistent tier.
func (hcs *HybridCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) (int64, error) {
	var fastRemoved, slowRemoved int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := hcs.fast.InvalidateByDatasetVersion(gctx, datasetVersion)
		fastRemoved = n
		return err
	})
	g.Go(func() error {
		n, err := hcs.slow.InvalidateByDatasetVersion(gctx, datasetVersion)
		slowRemoved = n
		return err
	})
	if err := g.Wait(); err != nil {
		return slowRemoved, fmt.Errorf("invalidate hybrid cache: %w", err)
	}

	hcs.logger.Info("Hybrid cache invalidated",
		zap.String("dataset_version", datasetVersion),
		zap.Int64("fast_removed", fastRemoved),
		zap.Int64("slow_removed", slowRemoved))
	return slowRemoved, nil
}

// GetStats combines both tiers. Items are counted from the persistent tier.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	fastStats, fastErr := hcs.fast.GetStats(ctx)
	slowStats, slowErr := hcs.slow.GetStats(ctx)

	switch {
	case fastErr != nil && slowErr != nil:
		return nil, errors.Join(fastErr, slowErr)
	case fastErr != nil:
		return slowStats, nil
	case slowErr != nil:
		return fastStats, nil
	}

	// A request that hits the fast tier never reaches the slow one, so its
	// misses are counted once.
	hits := fastStats.TotalHits + slowStats.TotalHits
	misses := slowStats.TotalMiss
	combined := &CacheStats{
		Backend:    CacheBackendHybrid,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: slowStats.TotalItems,
	}
	if total := hits + misses; total > 0 {
		combined.HitRate = float64(hits) / float64(total)
	}
	return combined, nil
}

// Exists checks the fast tier, then the slow one.
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.fast.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Fast cache exists check failed, falling back", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.slow.Exists(ctx, key)
}

// GetTTL reports the fast tier TTL.
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.fast.GetTTL(ctx, key)
}

// Close closes both tiers.
func (hcs *HybridCacheService) Close() error {
	return errors.Join(hcs.fast.Close(), hcs.slow.Close())
}

func (hcs *HybridCacheService) both(ctx context.Context, op string, fn func(context.Context, ICacheService) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fn(gctx, hcs.fast) })
	g.Go(func() error { return fn(gctx, hcs.slow) })
	if err := g.Wait(); err != nil {
		hcs.logger.Warn("Hybrid cache write failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("hybrid cache %s: %w", op, err)
	}
	return nil
}
