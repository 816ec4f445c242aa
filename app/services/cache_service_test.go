package services

import (
	"context"
	"testing"
	"time"

	"github.com/place-resolver/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheService_GetSet(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)

	_, found, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	want := &models.ChatResult{Kind: models.KindText, Text: "hi", DatasetVersion: "sha256:a"}
	require.NoError(t, cs.Set(ctx, "k", want))

	got, found, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Same(t, want, got)

	exists, _ := cs.Exists(ctx, "k")
	assert.True(t, exists)

	ttl, _ := cs.GetTTL(ctx, "k")
	assert.Greater(t, ttl, 59*time.Minute)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CacheBackendMemory, stats.Backend)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	require.NoError(t, cs.Delete(ctx, "k"))
	exists, _ = cs.Exists(ctx, "k")
	assert.False(t, exists)
}

func TestCacheService_Expiry(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, 20*time.Millisecond)
	require.NoError(t, cs.Set(ctx, "k", &models.ChatResult{}))

	assert.Eventually(t, func() bool {
		_, found, _ := cs.Get(ctx, "k")
		return !found
	}, time.Second, 10*time.Millisecond)
}

func TestCacheService_InvalidateByDatasetVersion(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)
	require.NoError(t, cs.Set(ctx, "old1", &models.ChatResult{DatasetVersion: "v1"}))
	require.NoError(t, cs.Set(ctx, "old2", &models.ChatResult{DatasetVersion: "v1"}))
	require.NoError(t, cs.Set(ctx, "new", &models.ChatResult{DatasetVersion: "v2"}))

	removed, err := cs.InvalidateByDatasetVersion(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, cs.Size())

	exists, _ := cs.Exists(ctx, "new")
	assert.True(t, exists)
}

func TestCacheService_Clear(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(10, time.Hour)
	require.NoError(t, cs.Set(ctx, "k", &models.ChatResult{}))
	_, _, _ = cs.Get(ctx, "k")

	require.NoError(t, cs.Clear(ctx))

	stats, _ := cs.GetStats(ctx)
	assert.Equal(t, int64(0), stats.TotalItems)
	assert.Equal(t, int64(0), stats.TotalHits)
}

func TestHybridCacheService(t *testing.T) {
	ctx := context.Background()

	t.Run("Set writes both tiers", func(t *testing.T) {
		fast, slow := NewCacheService(10, time.Hour), NewCacheService(10, time.Hour)
		hcs := NewHybridCacheService(fast, slow, zap.NewNop())

		require.NoError(t, hcs.Set(ctx, "k", &models.ChatResult{Text: "x"}))
		assert.Equal(t, 1, fast.Size())
		assert.Equal(t, 1, slow.Size())
	})

	t.Run("Slow hit is copied to fast tier", func(t *testing.T) {
		fast, slow := NewCacheService(10, time.Hour), NewCacheService(10, time.Hour)
		hcs := NewHybridCacheService(fast, slow, zap.NewNop())
		require.NoError(t, slow.Set(ctx, "k", &models.ChatResult{Text: "x"}))

		got, found, err := hcs.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "x", got.Text)

		assert.Eventually(t, func() bool {
			ok, _ := fast.Exists(ctx, "k")
			return ok
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Fast tier failure falls back", func(t *testing.T) {
		slow := NewCacheService(10, time.Hour)
		hcs := NewHybridCacheService(failingCache{}, slow, zap.NewNop())
		require.NoError(t, slow.Set(ctx, "k", &models.ChatResult{Text: "x"}))

		_, found, err := hcs.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)

		exists, err := hcs.Exists(ctx, "k")
		require.NoError(t, err)
		assert.True(t, exists)

		stats, err := hcs.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, CacheBackendMemory, stats.Backend)
	})

	t.Run("Write failure is reported", func(t *testing.T) {
		hcs := NewHybridCacheService(NewCacheService(10, time.Hour), failingCache{}, zap.NewNop())
		err := hcs.Set(ctx, "k", &models.ChatResult{})
		assert.ErrorIs(t, err, errBackend)
	})

	t.Run("Invalidate reaches both tiers", func(t *testing.T) {
		fast, slow := NewCacheService(10, time.Hour), NewCacheService(10, time.Hour)
		hcs := NewHybridCacheService(fast, slow, zap.NewNop())
		require.NoError(t, hcs.Set(ctx, "a", &models.ChatResult{DatasetVersion: "v1"}))
		require.NoError(t, hcs.Set(ctx, "b", &models.ChatResult{DatasetVersion: "v2"}))

		removed, err := hcs.InvalidateByDatasetVersion(ctx, "v2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assert.Equal(t, 1, fast.Size())
		assert.Equal(t, 1, slow.Size())

		stats, err := hcs.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, CacheBackendHybrid, stats.Backend)
		assert.Equal(t, int64(1), stats.TotalItems)
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("hello")
	assert.Equal(t, a, Fingerprint("hello"))
	assert.NotEqual(t, a, Fingerprint("hello "))
	assert.Len(t, a, len("sha256:")+64)
}
