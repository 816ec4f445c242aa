package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New(prometheus.NewRegistry())
	require.NotNil(t, m)

	assert.NotNil(t, m.ChatRequestsTotal)
	assert.NotNil(t, m.ChatDurationSeconds)
	assert.NotNil(t, m.ResolveTotal)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.CacheMissesTotal)
	assert.NotNil(t, m.CacheErrorsTotal)
	assert.NotNil(t, m.SingleflightDedupTotal)
	assert.NotNil(t, m.IndexPOIs)
	assert.NotNil(t, m.IndexReloadsTotal)
	assert.NotNil(t, m.IndexRejectedPOIs)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestRecordChat(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordChat("navigate", "links", 0.002)
	m.RecordChat("navigate", "links", 0.001)
	m.RecordChat("show", "fallback", 0.001)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("navigate", "links")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChatRequestsTotal.WithLabelValues("show", "fallback")))
}

func TestRecordResolveAndCache(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordResolve(true)
	m.RecordResolve(false)
	m.RecordResolve(false)
	m.RecordCacheHit("memory")
	m.RecordCacheMiss("redis")
	m.RecordCacheError("redis", "get")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolveTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResolveTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("memory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheErrorsTotal.WithLabelValues("redis", "get")))
}

func TestRecordIndexLoad(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordIndexLoad("success", 29, 0)
	assert.Equal(t, 29.0, testutil.ToFloat64(m.IndexPOIs))

	m.RecordIndexLoad("error", 0, 3)
	assert.Equal(t, 29.0, testutil.ToFloat64(m.IndexPOIs))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexRejectedPOIs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexReloadsTotal.WithLabelValues("error")))
}
