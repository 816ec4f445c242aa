// Package resolver matches free-text place phrases against the POI index.
package resolver

import (
	"strings"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/normalizer"
	"github.com/place-resolver/internal/poi"
)

// TokenWeight is the credit a POI earns for each token that overlaps the query.
const TokenWeight = 2

// SnapshotSource is satisfied by *poi.Index.
type SnapshotSource interface {
	Snapshot() *poi.Snapshot
}

// Match is a resolved POI with its score.
type Match struct {
	POI   models.POI `json:"poi"`
	Score int        `json:"score"`
}

// Resolver scores queries against the current index snapshot.
type Resolver struct {
	source SnapshotSource
}

// New creates a Resolver reading from source.
func New(source SnapshotSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the best-scoring POI for query, or nil when nothing overlaps.
// Ties go to the POI that appears first in the dataset.
func (r *Resolver) Resolve(query string) *Match {
	return r.ResolveIn(r.source.Snapshot(), query)
}

// ResolveIn resolves against a snapshot the caller already holds, so several
// lookups in one request see the same dataset.
func (r *Resolver) ResolveIn(snap *poi.Snapshot, query string) *Match {
	q := normalizer.Normalize(query)
	if q == "" || snap == nil {
		return nil
	}

	var best *poi.Entry
	bestScore := 0
	entries := snap.Entries()
	for i := range entries {
		s := scoreNormalized(q, &entries[i])
		if s > bestScore {
			bestScore = s
			best = &entries[i]
		}
	}

	if best == nil {
		return nil
	}
	return &Match{POI: best.POI, Score: bestScore}
}

// Score returns the score entry earns for query.
func Score(query string, entry *poi.Entry) int {
	q := normalizer.Normalize(query)
	if q == "" {
		return 0
	}
	return scoreNormalized(q, entry)
}

// scoreNormalized counts tokens that contain q or are contained in q.
func scoreNormalized(q string, entry *poi.Entry) int {
	score := 0
	for _, tok := range entry.NormTokens {
		if tok == "" {
			continue
		}
		if strings.Contains(tok, q) || strings.Contains(q, tok) {
			score += TokenWeight
		}
	}
	return score
}
