package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/expander"
	"github.com/place-resolver/internal/metrics"
	"github.com/place-resolver/internal/poi"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Dataset sources
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceMongo    = "mongo"
	SourceInline   = "inline"
)

var (
	ErrUnknownSource     = errors.New("unknown dataset source")
	ErrSourceDisabled    = errors.New("dataset source is not configured")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrDatasetUnreadable = errors.New("dataset could not be read")
)

// POIMirror receives every dataset that becomes current.
type POIMirror interface {
	SeedPOIs(records []models.POI, version string) (int, error)
}

// SynonymConfigurer accepts synonym groups for search.
type SynonymConfigurer interface {
	ConfigureIndex(synonyms map[string][]string) error
}

// ReloadOptions selects where a reload reads from.
type ReloadOptions struct {
	Source  string       // embedded, file or mongo; empty means the configured source
	Records []models.POI // inline records take precedence over Source
	DryRun  bool
}

// ReloadResult reports what a reload did.
type ReloadResult struct {
	Source           string          `json:"source"`
	DryRun           bool            `json:"dry_run"`
	PreviousVersion  string          `json:"previous_version"`
	Report           *poi.LoadReport `json:"report"`
	Mirrored         int             `json:"mirrored"`
	CacheInvalidated int64           `json:"cache_invalidated"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// SystemStats is the admin view of the running service.
type SystemStats struct {
	DatasetVersion string                 `json:"dataset_version"`
	IndexedPOIs    int                    `json:"indexed_pois"`
	LoadedAt       time.Time              `json:"loaded_at"`
	StoredPOIs     int64                  `json:"stored_pois"`
	Cache          *CacheStats            `json:"cache,omitempty"`
	Chat           *ChatServiceStats      `json:"chat,omitempty"`
	MemoryUsage    map[string]interface{} `json:"memory_usage"`
	Goroutines     int                    `json:"goroutines"`
}

// AdminService reloads the POI index and reports on the running service.
type AdminService struct {
	index       *poi.Index
	store       POIStore
	mirror      POIMirror
	cache       ICacheService
	metrics     *metrics.Metrics
	source      string
	datasetPath string
	logger      *zap.Logger
}

// NewAdminService creates an AdminService. store and mirror may be nil.
func NewAdminService(
	index *poi.Index,
	store POIStore,
	mirror POIMirror,
	cache ICacheService,
	m *metrics.Metrics,
	source, datasetPath string,
	logger *zap.Logger,
) *AdminService {
	if cache == nil {
		cache = NoopCacheService{}
	}
	if source == "" {
		source = SourceEmbedded
	}
	return &AdminService{
		index:       index,
		store:       store,
		mirror:      mirror,
		cache:       cache,
		metrics:     m,
		source:      source,
		datasetPath: datasetPath,
		logger:      logger,
	}
}

// LoadRecords reads the dataset from source. The file source only ever
// reads the configured dataset path, and a read or parse failure is
// reported as ErrDatasetUnreadable without the file contents.
func (as *AdminService) LoadRecords(ctx context.Context, source string) ([]models.POI, error) {
	if source == "" {
		source = as.source
	}

	switch source {
	case SourceEmbedded:
		return poi.LoadEmbedded()
	case SourceFile:
		if as.datasetPath == "" {
			return nil, fmt.Errorf("%w: dataset.path is empty", ErrSourceDisabled)
		}
		records, err := poi.LoadFile(as.datasetPath)
		if err != nil {
			as.logger.Warn("Failed to read POI dataset file",
				zap.String("path", as.datasetPath),
				zap.Error(err))
			return nil, ErrDatasetUnreadable
		}
		return records, nil
	case SourceMongo:
		if as.store == nil {
			return nil, fmt.Errorf("%w: mongo", ErrSourceDisabled)
		}
		return as.store.LoadPOIs(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
}

// Bootstrap performs the first load at startup.
func (as *AdminService) Bootstrap(ctx context.Context) (*poi.LoadReport, error) {
	records, err := as.LoadRecords(ctx, "")
	if err != nil {
		return nil, err
	}
	report, err := as.index.Load(records)
	as.recordLoad(report, err)
	return report, err
}

// Reload builds a new snapshot and, unless it is a dry run, swaps it in,
// mirrors it to search and drops cached answers from older versions. A
// failed reload leaves the current snapshot in service.
func (as *AdminService) Reload(ctx context.Context, opts ReloadOptions) (*ReloadResult, error) {
	start := time.Now()

	source := opts.Source
	if source == "" {
		source = as.source
	}
	records := opts.Records
	if len(records) > 0 {
		source = SourceInline
	} else {
		var err error
		records, err = as.LoadRecords(ctx, source)
		if err != nil {
			as.recordLoad(nil, err)
			return nil, err
		}
	}

	result := &ReloadResult{
		Source:          source,
		DryRun:          opts.DryRun,
		PreviousVersion: as.index.Snapshot().Version(),
	}

	if opts.DryRun {
		report, _, err := as.index.Build(records)
		result.Report = report
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		return result, err
	}

	report, err := as.index.Reload(records)
	result.Report = report
	as.recordLoad(report, err)
	if err != nil {
		return result, err
	}

	if as.mirror != nil {
		n, err := as.mirror.SeedPOIs(as.index.Snapshot().All(), report.Version)
		if err != nil {
			as.logger.Warn("Search mirror update failed", zap.Error(err))
		}
		result.Mirrored = n
	}

	if report.Version != result.PreviousVersion {
		n, err := as.cache.InvalidateByDatasetVersion(ctx, report.Version)
		if err != nil {
			as.logger.Warn("Cache invalidation failed", zap.Error(err))
		}
		result.CacheInvalidated = n
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	as.logger.Info("POI reload completed",
		zap.String("source", source),
		zap.String("version", report.Version),
		zap.Int("indexed", report.Indexed),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int64("cache_invalidated", result.CacheInvalidated))
	return result, nil
}

// RebuildSynonyms pushes the expander's synonym groups to the search mirror
// and returns how many groups were sent.
func (as *AdminService) RebuildSynonyms() (int, error) {
	cfg, ok := as.mirror.(SynonymConfigurer)
	if !ok {
		return 0, fmt.Errorf("%w: search", ErrSourceDisabled)
	}

	synonyms := expander.Synonyms()
	if err := cfg.ConfigureIndex(synonyms); err != nil {
		return 0, fmt.Errorf("update search synonyms: %w", err)
	}

	as.logger.Info("Search synonyms rebuilt", zap.Int("synonym_groups", len(synonyms)))
	return len(synonyms), nil
}

// InvalidateCache drops cached answers not built from the current dataset.
func (as *AdminService) InvalidateCache(ctx context.Context, all bool) (int64, error) {
	if all {
		return 0, as.cache.Clear(ctx)
	}
	return as.cache.InvalidateByDatasetVersion(ctx, as.index.Snapshot().Version())
}

// Export returns the current snapshot in json or yaml.
func (as *AdminService) Export(format string) ([]byte, error) {
	snap := as.index.Snapshot()
	doc := struct {
		Version string       `json:"version" yaml:"version"`
		POIs    []models.POI `json:"pois" yaml:"pois"`
	}{Version: snap.Version(), POIs: snap.All()}

	switch format {
	case "", "json":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// GetSystemStats collects index, cache, storage and runtime figures.
func (as *AdminService) GetSystemStats(ctx context.Context, chatStats *ChatServiceStats) (*SystemStats, error) {
	snap := as.index.Snapshot()

	cacheStats, err := as.cache.GetStats(ctx)
	if err != nil {
		as.logger.Warn("Could not read cache stats", zap.Error(err))
	}

	var stored int64
	if as.store != nil {
		stored, err = as.store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count stored pois: %w", err)
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemStats{
		DatasetVersion: snap.Version(),
		IndexedPOIs:    snap.Len(),
		LoadedAt:       snap.LoadedAt(),
		StoredPOIs:     stored,
		Cache:          cacheStats,
		Chat:           chatStats,
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
	}, nil
}

func (as *AdminService) recordLoad(report *poi.LoadReport, err error) {
	if as.metrics == nil {
		return
	}
	if err != nil {
		rejected := 0
		if report != nil {
			rejected = len(report.Rejected)
		}
		as.metrics.RecordIndexLoad("failure", 0, rejected)
		return
	}
	as.metrics.RecordIndexLoad("success", report.Indexed, len(report.Rejected))
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
