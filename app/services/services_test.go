package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/metrics"
	"github.com/place-resolver/internal/poi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fptr(f float64) *float64 { return &f }

func newTestIndex(t *testing.T) *poi.Index {
	t.Helper()
	ix := poi.NewIndex(nil, zap.NewNop())
	records, err := poi.LoadEmbedded()
	require.NoError(t, err)
	_, err = ix.Load(records)
	require.NoError(t, err)
	return ix
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func smallDataset() []models.POI {
	return []models.POI{
		{ID: "hnd_airport", Name: "Tokyo Haneda Airport (HND)", NameKo: "하네다 공항", City: "Tokyo", Country: "Japan",
			Lat: fptr(35.5494), Lng: fptr(139.7798)},
		{ID: "hk_kaitak_cruise", Name: "Kai Tak Cruise Terminal", NameKo: "카이탁 크루즈 터미널", City: "Hong Kong", Country: "Hong Kong"},
	}
}

var errBackend = errors.New("backend down")

// failingCache fails every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (*models.ChatResult, bool, error) {
	return nil, false, errBackend
}
func (failingCache) Set(context.Context, string, *models.ChatResult) error { return errBackend }
func (failingCache) Delete(context.Context, string) error                  { return errBackend }
func (failingCache) Clear(context.Context) error                           { return errBackend }
func (failingCache) InvalidateByDatasetVersion(context.Context, string) (int64, error) {
	return 0, errBackend
}
func (failingCache) GetStats(context.Context) (*CacheStats, error)         { return nil, errBackend }
func (failingCache) Exists(context.Context, string) (bool, error)          { return false, errBackend }
func (failingCache) GetTTL(context.Context, string) (time.Duration, error) { return 0, errBackend }
func (failingCache) Close() error                                          { return nil }
