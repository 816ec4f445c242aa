package controllers

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/place-resolver/app/models"
	"github.com/place-resolver/app/responses"
	"github.com/place-resolver/app/services"
	"github.com/place-resolver/internal/intent"
	"github.com/place-resolver/internal/links"
	"github.com/place-resolver/internal/metrics"
	"github.com/place-resolver/internal/poi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router *gin.Engine
	index  *poi.Index
	cache  *services.CacheService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	ix := poi.NewIndex(nil, logger)
	records, err := poi.LoadEmbedded()
	require.NoError(t, err)
	_, err = ix.Load(records)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	cache := services.NewCacheService(100, time.Hour)
	chatService := services.NewChatService(ix, nil, cache, services.CacheBackendMemory, m, time.Second, logger)
	adminService := services.NewAdminService(ix, nil, nil, cache, m, services.SourceEmbedded, "", logger)

	chat := NewChatController(chatService, logger)
	admin := NewAdminController(adminService, chatService, logger)
	health := NewHealthController(ix, map[string]HealthCheck{
		"cache": func(context.Context) error { return nil },
	}, "test")

	r := gin.New()
	r.POST("/v1/chat", chat.Chat)
	r.POST("/v1/chat/batch", chat.ChatBatch)
	r.GET("/v1/resolve", chat.Resolve)
	r.GET("/v1/suggest", chat.Suggest)
	r.GET("/v1/links/directions", chat.Directions)
	r.GET("/v1/links/search", chat.Search)
	r.POST("/v1/admin/pois/reload", admin.ReloadPOIs)
	r.GET("/v1/admin/pois", admin.ExportPOIs)
	r.POST("/v1/admin/cache/invalidate", admin.InvalidateCache)
	r.POST("/v1/admin/search/synonyms/rebuild", admin.RebuildSynonyms)
	r.GET("/v1/admin/stats", admin.GetStats)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/live", health.Live)

	return &testServer{router: r, index: ix, cache: cache}
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestChat(t *testing.T) {
	s := newTestServer(t)

	testCases := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantIntent intent.Intent
		wantKind   models.ResultKind
	}{
		{name: "Navigate", body: gin.H{"message": "인천공항에서 포트미애미 터미널까지"},
			wantStatus: http.StatusOK, wantIntent: intent.Navigate, wantKind: models.KindLinks},
		{name: "Nearby", body: gin.H{"message": "도쿄역 근처 맛집"},
			wantStatus: http.StatusOK, wantIntent: intent.Nearby, wantKind: models.KindLinks},
		{name: "Explicit show mode", body: gin.H{"message": "카이탁", "mode": "show"},
			wantStatus: http.StatusOK, wantIntent: intent.Show, wantKind: models.KindLinks},
		{name: "General", body: gin.H{"message": "안녕하세요"},
			wantStatus: http.StatusOK, wantIntent: intent.General, wantKind: models.KindText},
		{name: "Missing message", body: gin.H{"mode": "go"}, wantStatus: http.StatusBadRequest},
		{name: "Blank message", body: gin.H{"message": "   "}, wantStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/v1/chat", tc.body)
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())

			if tc.wantStatus != http.StatusOK {
				resp := decode[responses.ErrorResponse](t, w)
				assert.Equal(t, CodeInvalidRequest, resp.Error)
				assert.NotEmpty(t, resp.Timestamp)
				return
			}

			resp := decode[responses.ChatResponse](t, w)
			assert.NotEmpty(t, resp.MessageID)
			require.NotNil(t, resp.Result)
			assert.Equal(t, tc.wantIntent, resp.Result.Intent)
			assert.Equal(t, tc.wantKind, resp.Result.Kind)
			assert.Equal(t, s.index.Snapshot().Version(), resp.Result.DatasetVersion)
		})
	}
}

func TestChat_SecondCallIsCached(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"message": "하네다 공항 가는 법", "trip": gin.H{"country": "JP"}}

	first := decode[responses.ChatResponse](t, s.do(http.MethodPost, "/v1/chat", body))
	second := decode[responses.ChatResponse](t, s.do(http.MethodPost, "/v1/chat", body))

	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Result.Text, second.Result.Text)
	assert.NotEqual(t, first.MessageID, second.MessageID)
}

func TestChatBatch(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"messages": []string{"카이탁 보여줘", "도쿄역 근처 카페"}}

	t.Run("Plain NDJSON", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/chat/batch", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 2)

		var line responses.BatchChatLine
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &line))
		assert.Equal(t, 1, line.Index)
		assert.Equal(t, intent.Nearby, line.Result.Intent)
	})

	t.Run("Gzip NDJSON", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/chat/batch", body, "Accept-Encoding", "gzip")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		raw, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 2)
	})

	t.Run("Empty batch rejected", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/chat/batch", gin.H{"messages": []string{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestResolve(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/resolve?q="+urlEscape("하네다공항"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[responses.ResolveResponse](t, w)
	assert.True(t, found.Found)
	assert.Equal(t, "hnd_airport", found.POI.ID)
	assert.Positive(t, found.Score)

	w = s.do(http.MethodGet, "/v1/resolve?q=xyzzy", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	missing := decode[responses.ResolveResponse](t, w)
	assert.False(t, missing.Found)
	assert.Nil(t, missing.POI)

	w = s.do(http.MethodGet, "/v1/resolve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggest(t *testing.T) {
	s := newTestServer(t)

	testCases := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []string
	}{
		{name: "Country and kind in query", query: "q=" + urlEscape("미국 크루즈 터미널"), wantStatus: http.StatusOK,
			wantIDs: []string{"port_miami_cruise", "port_everglades_cruise"}},
		{name: "Country parameter", query: "country=JP&kind=cruise&limit=2", wantStatus: http.StatusOK,
			wantIDs: []string{"tokyo_intl_cruise", "yokohama_osanbashi_terminal"}},
		{name: "Empty query lists hubs", query: "limit=2", wantStatus: http.StatusOK,
			wantIDs: []string{"icn_airport", "gmp_airport"}},
		{name: "Unknown kind", query: "kind=train", wantStatus: http.StatusBadRequest},
		{name: "Unknown country", query: "country=Atlantis", wantStatus: http.StatusBadRequest},
		{name: "Limit out of range", query: "limit=500", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodGet, "/v1/suggest?"+tc.query, nil)
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			if tc.wantStatus != http.StatusOK {
				assert.Equal(t, CodeInvalidRequest, decode[responses.ErrorResponse](t, w).Error)
				return
			}

			resp := decode[responses.SuggestResponse](t, w)
			ids := make([]string, 0, len(resp.Places))
			for _, p := range resp.Places {
				ids = append(ids, p.ID)
				assert.NotEmpty(t, p.Label)
				assert.NotEmpty(t, p.Value)
			}
			assert.Equal(t, tc.wantIDs, ids)
			assert.NotEmpty(t, resp.DatasetVersion)
		})
	}
}

func TestLinks(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/links/directions?origin=Seoul+Station&destination=Incheon+Airport&mode=transit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dir := decode[responses.LinkResponse](t, w)
	assert.Equal(t, links.Transit, dir.Link.Mode)
	assert.Equal(t, links.DirectionsURL("Seoul Station", "Incheon Airport", links.Transit), dir.Link.URL)

	w = s.do(http.MethodGet, "/v1/links/search?q=Tokyo+cafe", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, links.SearchURL("Tokyo cafe"), decode[responses.LinkResponse](t, w).Link.URL)

	w = s.do(http.MethodGet, "/v1/links/search?q=Tokyo+cafe&images=true", nil)
	assert.Equal(t, links.ImageSearchURL("Tokyo cafe"), decode[responses.LinkResponse](t, w).Link.URL)

	w = s.do(http.MethodGet, "/v1/links/directions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReloadPOIs(t *testing.T) {
	s := newTestServer(t)
	before := s.index.Snapshot().Version()
	inline := gin.H{"pois": []gin.H{
		{"id": "hnd_airport", "name": "Tokyo Haneda Airport (HND)", "name_ko": "하네다 공항", "city": "Tokyo", "country": "Japan"},
	}}

	t.Run("Dry run leaves index", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/admin/pois/reload?dry_run=true", inline)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[map[string]interface{}](t, w)
		assert.Equal(t, true, resp["dry_run"])
		assert.Equal(t, before, s.index.Snapshot().Version())
	})

	t.Run("Invalid dataset rejected", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/admin/pois/reload", gin.H{"pois": []gin.H{{"id": "nameless"}}})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, CodeReloadFailed, decode[responses.ErrorResponse](t, w).Error)
		assert.Equal(t, before, s.index.Snapshot().Version())
	})

	t.Run("Unknown source rejected", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/admin/pois/reload", gin.H{"source": "ftp"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Inline reload swaps", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/admin/pois/reload", inline)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotEqual(t, before, s.index.Snapshot().Version())
		assert.Equal(t, 1, s.index.Snapshot().Len())
	})

	t.Run("Empty body reloads configured source", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/admin/pois/reload", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, before, s.index.Snapshot().Version())
	})

	t.Run("Path in body is never read", func(t *testing.T) {
		secret := filepath.Join(t.TempDir(), "creds.env")
		require.NoError(t, os.WriteFile(secret, []byte("DB_PASS=hunter2\n"), 0o600))

		w := s.do(http.MethodPost, "/v1/admin/pois/reload", gin.H{"source": "file", "path": secret})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), "hunter2")
		assert.Equal(t, before, s.index.Snapshot().Version())
	})
}

func TestReloadPOIs_UnreadableDatasetFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := filepath.Join(t.TempDir(), "creds.env")
	require.NoError(t, os.WriteFile(secret, []byte("DB_PASS=hunter2\n"), 0o600))

	logger := zap.NewNop()
	ix := poi.NewIndex(nil, logger)
	as := services.NewAdminService(ix, nil, nil, nil, nil, services.SourceFile, secret, logger)
	cs := services.NewChatService(ix, nil, nil, "", metrics.New(prometheus.NewRegistry()), time.Second, logger)

	r := gin.New()
	r.POST("/v1/admin/pois/reload", NewAdminController(as, cs, logger).ReloadPOIs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/admin/pois/reload", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "DB_PASS")
	resp := decode[responses.ErrorResponse](t, w)
	assert.Equal(t, CodeReloadFailed, resp.Error)
	assert.Equal(t, services.ErrDatasetUnreadable.Error(), resp.Message)
}

func TestExportPOIs(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/admin/pois?format=yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".yaml")
	assert.Contains(t, w.Body.String(), "hnd_airport")

	w = s.do(http.MethodGet, "/v1/admin/pois", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	w = s.do(http.MethodGet, "/v1/admin/pois?format=csv", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidateCache(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.cache.Set(ctx, "stale", &models.ChatResult{DatasetVersion: "sha256:old"}))
	require.NoError(t, s.cache.Set(ctx, "fresh", &models.ChatResult{DatasetVersion: s.index.Snapshot().Version()}))

	w := s.do(http.MethodPost, "/v1/admin/cache/invalidate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[responses.InvalidateCacheResponse](t, w)
	assert.Equal(t, int64(1), resp.Removed)
	assert.False(t, resp.All)

	w = s.do(http.MethodPost, "/v1/admin/cache/invalidate?all=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[responses.InvalidateCacheResponse](t, w).All)
	assert.Equal(t, 0, s.cache.Size())
}

func TestRebuildSynonyms_WithoutSearch(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/v1/admin/search/synonyms/rebuild", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/v1/chat", gin.H{"message": "카이탁 보여줘"})

	w := s.do(http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.SystemStats](t, w)
	assert.Equal(t, s.index.Snapshot().Len(), stats.IndexedPOIs)
	require.NotNil(t, stats.Chat)
	assert.Equal(t, int64(1), stats.Chat.TotalRequests)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[responses.HealthCheckResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["cache"])
	assert.Equal(t, "healthy", resp.Services["poi_index"])

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/live", nil).Code)
}

func TestReady_FailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ix := poi.NewIndex(nil, zap.NewNop())
	health := NewHealthController(ix, map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, "test")

	r := gin.New()
	r.GET("/ready", health.Ready)
	r.GET("/health", health.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[responses.HealthCheckResponse](t, w)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "empty", resp.Services["poi_index"])
	assert.Contains(t, resp.Services["redis"], "connection refused")
}

func urlEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
