package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/chat"
	"github.com/place-resolver/internal/intent"
	"github.com/place-resolver/internal/metrics"
	"github.com/place-resolver/internal/resolver"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrUnknownCountry is returned when a place listing names a country
	// that is not in the country table.
	ErrUnknownCountry = errors.New("unknown country")
)

// ChatService answers chat turns through the engine with a cache in front.
// Identical requests that arrive together are answered once.
type ChatService struct {
	source       resolver.SnapshotSource
	engine       *chat.Engine
	resolver     *resolver.Resolver
	suggester    resolver.Suggester
	cache        ICacheService
	cacheBackend string
	metrics      *metrics.Metrics
	group        singleflight.Group
	timeout      time.Duration
	logger       *zap.Logger

	startTime     time.Time
	totalRequests atomic.Int64
	cachedReplies atomic.Int64
}

// ChatServiceStats summarizes traffic since start.
type ChatServiceStats struct {
	TotalRequests  int64  `json:"total_requests"`
	CachedReplies  int64  `json:"cached_replies"`
	CacheBackend   string `json:"cache_backend"`
	DatasetVersion string `json:"dataset_version"`
	IndexedPOIs    int    `json:"indexed_pois"`
	Uptime         string `json:"uptime"`
}

// NewChatService creates a ChatService. A nil cache disables caching.
func NewChatService(
	source resolver.SnapshotSource,
	suggester resolver.Suggester,
	cache ICacheService,
	cacheBackend string,
	m *metrics.Metrics,
	timeout time.Duration,
	logger *zap.Logger,
) *ChatService {
	if cache == nil {
		cache, cacheBackend = NoopCacheService{}, CacheBackendNone
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ChatService{
		source:       source,
		engine:       chat.NewEngine(source, suggester, logger),
		resolver:     resolver.New(source),
		suggester:    suggester,
		cache:        cache,
		cacheBackend: cacheBackend,
		metrics:      m,
		timeout:      timeout,
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Chat answers one turn. The bool reports whether the answer came from the
// cache. Cache failures are logged and treated as misses.
func (cs *ChatService) Chat(ctx context.Context, req chat.Request) (*models.ChatResult, bool, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, false, ErrEmptyMessage
	}

	ctx, cancel := context.WithTimeout(ctx, cs.timeout)
	defer cancel()

	start := time.Now()
	cs.totalRequests.Add(1)

	key := CacheKey(cs.source.Snapshot().Version(), req)

	if result, ok := cs.fromCache(ctx, key); ok {
		cs.cachedReplies.Add(1)
		cs.metrics.RecordChat(string(result.Intent), string(result.Kind), time.Since(start).Seconds())
		return result, true, nil
	}

	v, _, shared := cs.group.Do(key, func() (interface{}, error) {
		result := cs.engine.Handle(ctx, req)
		if err := cs.cache.Set(ctx, key, result); err != nil {
			cs.metrics.RecordCacheError(cs.cacheBackend, "set")
			cs.logger.Warn("Cache write failed", zap.String("backend", cs.cacheBackend), zap.Error(err))
		}
		return result, nil
	})
	if shared {
		cs.metrics.RecordSingleflightDedup()
	}
	result := v.(*models.ChatResult)

	cs.metrics.RecordChat(string(result.Intent), string(result.Kind), time.Since(start).Seconds())
	cs.logger.Info("Chat answered",
		zap.String("intent", string(result.Intent)),
		zap.String("kind", string(result.Kind)),
		zap.Duration("elapsed", time.Since(start)))
	return result, false, nil
}

func (cs *ChatService) fromCache(ctx context.Context, key string) (*models.ChatResult, bool) {
	result, found, err := cs.cache.Get(ctx, key)
	if err != nil {
		cs.metrics.RecordCacheError(cs.cacheBackend, "get")
		cs.logger.Warn("Cache read failed", zap.String("backend", cs.cacheBackend), zap.Error(err))
		return nil, false
	}
	if !found || result == nil {
		cs.metrics.RecordCacheMiss(cs.cacheBackend)
		return nil, false
	}
	cs.metrics.RecordCacheHit(cs.cacheBackend)
	return result, true
}

// Resolve looks up query directly. On a miss it returns suggestions instead.
func (cs *ChatService) Resolve(ctx context.Context, query string) (*resolver.Match, []string) {
	match := cs.resolver.Resolve(query)
	cs.metrics.RecordResolve(match != nil)
	if match != nil || cs.suggester == nil {
		return match, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cs.timeout)
	defer cancel()

	suggestions, err := cs.suggester.Suggest(ctx, query, chat.DefaultSuggestionLimit)
	if err != nil {
		cs.logger.Warn("Suggestion lookup failed", zap.String("query", query), zap.Error(err))
		return nil, nil
	}
	return nil, suggestions
}

// Places lists airports and cruise terminals for a partial query. A country
// passed explicitly, or named in q, narrows the listing, as do kind words in
// q such as "공항" or "cruise". With nothing to narrow by, the hub list is
// returned.
func (cs *ChatService) Places(q, country, kind string, limit int) ([]resolver.Place, error) {
	snap := cs.source.Snapshot()

	var kinds []string
	if kind != "" {
		kinds = []string{kind}
	} else {
		kinds = resolver.KindsNamed(q)
	}

	c, found, err := placeCountry(q, country)
	if err != nil {
		return nil, err
	}
	if !found && len(kinds) == 0 {
		return resolver.Hubs(snap, limit), nil
	}

	filter := resolver.PlaceFilter{Kinds: kinds, Limit: limit}
	if found {
		filter.Countries = c.Spellings()
	}
	return resolver.Places(snap, filter), nil
}

func placeCountry(q, country string) (intent.Country, bool, error) {
	if country = strings.TrimSpace(country); country != "" {
		if c, ok := intent.CountryByName(country); ok {
			return c, true, nil
		}
		if c, ok := intent.CountryByCode(country); ok {
			return c, true, nil
		}
		return intent.Country{}, false, ErrUnknownCountry
	}
	if q = strings.TrimSpace(q); q == "" {
		return intent.Country{}, false, nil
	}
	if c, ok := intent.CountryByName(q); ok {
		return c, true, nil
	}
	if s := intent.ExtractSlots(q); s.CountryCode != "" {
		c, ok := intent.CountryByCode(s.CountryCode)
		return c, ok, nil
	}
	return intent.Country{}, false, nil
}

// DatasetVersion returns the version of the snapshot currently served.
func (cs *ChatService) DatasetVersion() string {
	return cs.source.Snapshot().Version()
}

// GetStartTime returns when the service was created.
func (cs *ChatService) GetStartTime() time.Time {
	return cs.startTime
}

// GetStats returns traffic counters.
func (cs *ChatService) GetStats() *ChatServiceStats {
	snap := cs.source.Snapshot()
	return &ChatServiceStats{
		TotalRequests:  cs.totalRequests.Load(),
		CachedReplies:  cs.cachedReplies.Load(),
		CacheBackend:   cs.cacheBackend,
		DatasetVersion: snap.Version(),
		IndexedPOIs:    snap.Len(),
		Uptime:         time.Since(cs.startTime).Round(time.Second).String(),
	}
}

// CacheKey identifies a request. The dataset version is part of the key so
// a reload never serves answers built from older data.
func CacheKey(datasetVersion string, req chat.Request) string {
	var b strings.Builder
	b.WriteString("v1|")
	b.WriteString(datasetVersion)
	b.WriteString("|")
	b.WriteString(string(req.Mode))
	b.WriteString("|")
	b.WriteString(strings.TrimSpace(req.Text))
	if req.Trip != nil {
		b.WriteString("|")
		b.WriteString(strings.TrimSpace(req.Trip.Country))
		b.WriteString("|")
		b.WriteString(strings.TrimSpace(req.Trip.Destination))
	}
	return Fingerprint(b.String())
}
