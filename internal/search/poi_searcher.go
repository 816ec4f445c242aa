package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/place-resolver/app/models"
	"go.uber.org/zap"
)

// SearchConfig configures the Meilisearch mirror.
type SearchConfig struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
}

// POISearcher keeps a Meilisearch index in sync with the POI dataset and
// answers suggestion queries from it. Resolution itself never goes through
// Meilisearch.
type POISearcher struct {
	client    meilisearch.ServiceManager
	logger    *zap.Logger
	indexName string
	timeout   time.Duration
	lastTask  atomic.Int64
}

// NewPOISearcher connects to Meilisearch and checks its health.
func NewPOISearcher(config SearchConfig, logger *zap.Logger) (*POISearcher, error) {
	client := NewClient(config.Host, config.APIKey)

	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("connect to meilisearch: %w", err)
	}

	if config.IndexName == "" {
		config.IndexName = "pois"
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}

	return &POISearcher{
		client:    client,
		logger:    logger,
		indexName: config.IndexName,
		timeout:   config.Timeout,
	}, nil
}

// Healthy reports whether Meilisearch answers its health endpoint.
func (ps *POISearcher) Healthy() bool {
	return ps.client.IsHealthy()
}

// ConfigureIndex applies searchable attributes, typo tolerance and the
// expander's literal synonyms to the index.
func (ps *POISearcher) ConfigureIndex(synonyms map[string][]string) error {
	index := ps.client.Index(ps.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name_ko", "name", "keywords_ko", "romanized", "normalized_name", "city", "country"},
		FilterableAttributes: []string{"country", "city", "kind", "dataset_version", "_geo"},
		SortableAttributes:   []string{"position", "_geo"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms:             synonyms,
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure meilisearch index: %w", err)
	}

	ps.lastTask.Store(task.TaskUID)
	ps.logger.Info("Meilisearch index configured",
		zap.String("index", ps.indexName),
		zap.Int64("task_uid", task.TaskUID))
	return nil
}

// SeedPOIs replaces the index contents with records. Documents are sent in
// batches of 1000.
func (ps *POISearcher) SeedPOIs(records []models.POI, version string) (int, error) {
	if len(records) == 0 {
		return 0, errors.New("no POIs to seed")
	}

	index := ps.client.Index(ps.indexName)

	if _, err := index.DeleteAllDocuments(); err != nil {
		return 0, fmt.Errorf("clear meilisearch index: %w", err)
	}

	documents := Documents(records, version)

	batchSize := 1000
	for i := 0; i < len(documents); i += batchSize {
		end := i + batchSize
		if end > len(documents) {
			end = len(documents)
		}

		task, err := index.AddDocuments(documents[i:end], "id")
		if err != nil {
			return i, fmt.Errorf("add documents %d-%d: %w", i, end, err)
		}

		ps.lastTask.Store(task.TaskUID)
		ps.logger.Info("Added POI batch",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	ps.logger.Info("POIs mirrored to Meilisearch",
		zap.Int("total_documents", len(documents)),
		zap.String("dataset_version", version))
	return len(documents), nil
}

// Wait blocks until the most recent settings or documents task has finished.
// Meilisearch processes tasks in order, so this covers every earlier task.
func (ps *POISearcher) Wait(ctx context.Context, poll time.Duration) error {
	uid := ps.lastTask.Load()
	if uid == 0 {
		return nil
	}
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		task, err := ps.client.GetTask(uid)
		if err != nil {
			return fmt.Errorf("check meilisearch task %d: %w", uid, err)
		}
		switch task.Status {
		case meilisearch.TaskStatusSucceeded:
			return nil
		case meilisearch.TaskStatusFailed, meilisearch.TaskStatusCanceled:
			return fmt.Errorf("meilisearch task %d ended as %s", uid, task.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Suggest returns display names of the closest POIs for query.
func (ps *POISearcher) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	return ps.SuggestWithFilter(ctx, query, "", limit)
}

// SuggestWithFilter is Suggest restricted by a Meilisearch filter expression.
func (ps *POISearcher) SuggestWithFilter(ctx context.Context, query, filter string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, ps.timeout)
	defer cancel()

	type outcome struct {
		res *meilisearch.SearchResponse
		err error
	}
	done := make(chan outcome, 1)
	req := &meilisearch.SearchRequest{Limit: int64(limit)}
	if filter != "" {
		req.Filter = filter
	}
	go func() {
		res, err := ps.client.Index(ps.indexName).Search(query, req)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("meilisearch suggest: %w", o.err)
		}
		return parseSuggestions(o.res.Hits, limit), nil
	}
}

func parseSuggestions(hits []interface{}, limit int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, hit := range hits {
		name, ok := displayNameFromHit(hit)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
		if len(out) == limit {
			break
		}
	}
	return out
}
