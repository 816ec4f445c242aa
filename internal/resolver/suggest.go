package resolver

import (
	"context"
	"math"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/place-resolver/internal/normalizer"
	"github.com/xrash/smetrics"
)

// Suggester proposes place names when Resolve finds nothing.
type Suggester interface {
	Suggest(ctx context.Context, query string, limit int) ([]string, error)
}

// FuzzySuggester ranks POIs by edit similarity between the romanized query
// and each romanized token. It only runs on the not-found path, so it never
// changes what Resolve returns.
type FuzzySuggester struct {
	source         SnapshotSource
	shortThreshold float64 // queries up to 10 characters
	longThreshold  float64
}

// NewFuzzySuggester creates a suggester with the default thresholds.
func NewFuzzySuggester(source SnapshotSource) *FuzzySuggester {
	return &FuzzySuggester{source: source, shortThreshold: 0.85, longThreshold: 0.75}
}

type suggestion struct {
	name  string
	score float64
	order int
}

// Suggest returns up to limit display names, best first. Equal scores keep
// dataset order.
func (f *FuzzySuggester) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := normalizer.Romanize(query)
	if q == "" || limit <= 0 {
		return nil, nil
	}

	threshold := f.longThreshold
	if len(q) <= 10 {
		threshold = f.shortThreshold
	}

	snap := f.source.Snapshot()
	if snap == nil {
		return nil, nil
	}

	var found []suggestion
	for i, e := range snap.Entries() {
		best := 0.0
		for _, tok := range e.NormTokens {
			if s := similarity(q, normalizer.Romanize(tok)); s > best {
				best = s
			}
		}
		if best >= threshold {
			found = append(found, suggestion{name: e.POI.DisplayName(), score: best, order: i})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		return found[i].order < found[j].order
	})

	seen := make(map[string]struct{})
	var out []string
	for _, s := range found {
		if _, dup := seen[s.name]; dup {
			continue
		}
		seen[s.name] = struct{}{}
		out = append(out, s.name)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// SuggesterChain asks each suggester in turn and returns the first non-empty
// answer. A failing suggester is skipped.
type SuggesterChain []Suggester

func (c SuggesterChain) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	var lastErr error
	for _, s := range c {
		if s == nil {
			continue
		}
		out, err := s.Suggest(ctx, query, limit)
		if err != nil {
			lastErr = err
			continue
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, lastErr
}

// similarity is the larger of Jaro-Winkler and length-normalized Levenshtein.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := math.Max(float64(len(a)), float64(len(b)))
	lev := 1.0 - float64(dist)/maxLen

	return math.Max(jw, lev)
}
