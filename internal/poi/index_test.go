package poi

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/place-resolver/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fptr(f float64) *float64 { return &f }

func fixture() []models.POI {
	return []models.POI{
		{ID: "hk_kaitak_cruise", Name: "Kai Tak Cruise Terminal", NameKo: "카이탁 크루즈 터미널", City: "Hong Kong", Country: "Hong Kong",
			Lat: fptr(22.3067), Lng: fptr(114.2139), KeywordsKo: []string{"카이탁"}},
		{ID: "hnd_airport", Name: "Tokyo Haneda Airport (HND)", NameKo: "하네다 공항", City: "Tokyo", Country: "Japan"},
	}
}

func TestIndex_LoadAndSnapshot(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	ix := NewIndex(nil, logger)

	assert.Equal(t, 0, ix.Snapshot().Len())

	report, err := ix.Load(fixture())
	require.NoError(t, err)
	assert.True(t, report.Swapped)
	assert.Equal(t, 2, report.Indexed)
	assert.NotEmpty(t, report.Version)

	snap := ix.Snapshot()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, report.Version, snap.Version())
	assert.Equal(t, "hk_kaitak_cruise", snap.All()[0].ID)

	for _, e := range snap.Entries() {
		require.NotEmpty(t, e.Tokens)
		require.Len(t, e.NormTokens, len(e.Tokens))
	}
}

func TestIndex_NilLogger(t *testing.T) {
	ix := NewIndex(nil, nil)

	report, err := ix.Load(append(fixture(), models.POI{ID: "nameless"}))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)

	_, err = ix.Reload(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.Equal(t, 2, ix.Snapshot().Len())
}

func TestIndex_SkipsMalformedRecords(t *testing.T) {
	ix := NewIndex(nil, zap.NewNop())

	records := append(fixture(),
		models.POI{ID: "no_name", City: "Nowhere"},
		models.POI{ID: "half_coords", Name: "Half", Lat: fptr(1)},
		models.POI{ID: "bad_lat", Name: "Bad", Lat: fptr(120), Lng: fptr(0)},
	)

	report, err := ix.Load(records)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)
	require.Len(t, report.Rejected, 3)
	assert.Equal(t, 2, report.Rejected[0].Index)
	assert.Equal(t, "half_coords", report.Rejected[1].ID)
}

func TestIndex_ReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	ix := NewIndex(nil, zap.NewNop())
	_, err := ix.Load(fixture())
	require.NoError(t, err)
	before := ix.Snapshot()

	_, err = ix.Reload(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = ix.Reload([]models.POI{{ID: "bad"}})
	assert.ErrorIs(t, err, ErrNoValidRecords)

	assert.Same(t, before, ix.Snapshot())
}

func TestIndex_ReloadSwapsWholeSnapshot(t *testing.T) {
	ix := NewIndex(nil, zap.NewNop())
	_, err := ix.Load(fixture())
	require.NoError(t, err)

	next := []models.POI{{ID: "seoul_station", Name: "Seoul Station", NameKo: "서울역"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := ix.Snapshot()
				n := snap.Len()
				assert.True(t, n == 0 || n == 1 || n == 2)
				assert.Len(t, snap.All(), n)
			}
		}()
	}

	_, err = ix.Reload(next)
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, 1, ix.Snapshot().Len())
}

func TestDatasetVersion_Stable(t *testing.T) {
	a, err := DatasetVersion(fixture())
	require.NoError(t, err)
	b, err := DatasetVersion(fixture())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := DatasetVersion(fixture()[:1])
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestLoadEmbedded(t *testing.T) {
	records, err := LoadEmbedded()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	ix := NewIndex(nil, zap.NewNop())
	report, err := ix.Load(records)
	require.NoError(t, err)
	assert.Empty(t, report.Rejected)

	seen := map[string]bool{}
	for _, p := range records {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		if p.ID == "hnd_airport" {
			assert.Equal(t, models.POIKindAirport, p.Kind())
		}
		if p.ID == "hk_kaitak_cruise" {
			assert.Equal(t, models.POIKindCruise, p.Kind())
		}
	}
}

func TestLoadFile_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "terminals.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
  {"id": "port_miami_cruise", "name": "PortMiami Cruise Terminal", "name_ko": "포트마이애미 크루즈 터미널",
   "lat": 25.7781, "lng": -80.1794, "city": "Miami", "country": "United States", "keywords_ko": ["포트마이애미"]}
]`), 0o644))

	records, err := LoadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "포트마이애미 크루즈 터미널", records[0].NameKo)
	require.True(t, records[0].HasCoordinates())
	assert.InDelta(t, -80.1794, *records[0].Lng, 1e-9)

	yamlPath := filepath.Join(dir, "pois.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("pois:\n  - name: Seoul Station\n    name_ko: 서울역\n"), 0o644))

	records, err = LoadFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "서울역", records[0].NameKo)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
