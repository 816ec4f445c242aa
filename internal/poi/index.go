// Package poi holds the in-memory POI index. A loaded index is an immutable
// snapshot; reloading builds a new snapshot and swaps it in atomically.
package poi

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/place-resolver/app/models"
	"github.com/place-resolver/internal/expander"
	"github.com/place-resolver/internal/normalizer"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyDataset   = errors.New("poi dataset is empty")
	ErrNoValidRecords = errors.New("poi dataset has no valid records")
)

// ValidationError describes one rejected record.
type ValidationError struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("poi #%d (%s): %s", e.Index, e.ID, e.Reason)
}

// Entry is a POI together with its token set. NormTokens[i] is the
// normalized form of Tokens[i].
type Entry struct {
	POI        models.POI
	Tokens     []string
	NormTokens []string
}

// Snapshot is one fully built, read-only generation of the index.
type Snapshot struct {
	entries  []Entry
	version  string
	loadedAt time.Time
}

// Entries returns the entries in dataset order. Callers must not modify them.
func (s *Snapshot) Entries() []Entry { return s.entries }

// Len returns the number of indexed POIs.
func (s *Snapshot) Len() int { return len(s.entries) }

// Version identifies the dataset the snapshot was built from.
func (s *Snapshot) Version() string { return s.version }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// All returns a copy of the indexed POI records in dataset order.
func (s *Snapshot) All() []models.POI {
	out := make([]models.POI, len(s.entries))
	for i := range s.entries {
		out[i] = s.entries[i].POI
	}
	return out
}

// LoadReport summarizes a Load or Reload.
type LoadReport struct {
	Version  string            `json:"version"`
	Indexed  int               `json:"indexed"`
	Rejected []ValidationError `json:"rejected,omitempty"`
	Swapped  bool              `json:"swapped"`
}

// Index serves the current snapshot to any number of concurrent readers.
type Index struct {
	current  atomic.Pointer[Snapshot]
	expander *expander.Expander
	logger   *zap.Logger
}

// NewIndex creates an empty index. Until the first Load, Snapshot returns an
// empty snapshot.
func NewIndex(exp *expander.Expander, logger *zap.Logger) *Index {
	if exp == nil {
		exp = expander.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ix := &Index{expander: exp, logger: logger}
	ix.current.Store(&Snapshot{})
	return ix
}

// Snapshot returns the current generation. Hold on to the returned value for
// the whole request so every lookup sees the same data.
func (ix *Index) Snapshot() *Snapshot {
	return ix.current.Load()
}

// Load builds a snapshot from records and makes it current.
func (ix *Index) Load(records []models.POI) (*LoadReport, error) {
	report, snap, err := ix.Build(records)
	if err != nil {
		return report, err
	}
	ix.current.Store(snap)
	report.Swapped = true

	ix.logger.Info("POI index loaded",
		zap.String("version", report.Version),
		zap.Int("indexed", report.Indexed),
		zap.Int("rejected", len(report.Rejected)))
	return report, nil
}

// Reload replaces the current snapshot. On error the previous snapshot stays
// in service.
func (ix *Index) Reload(records []models.POI) (*LoadReport, error) {
	previous := ix.Snapshot().Version()
	report, err := ix.Load(records)
	if err != nil {
		ix.logger.Warn("POI reload rejected, keeping previous snapshot",
			zap.String("previous_version", previous),
			zap.Error(err))
		return report, err
	}
	ix.logger.Info("POI index reloaded",
		zap.String("previous_version", previous),
		zap.String("version", report.Version))
	return report, nil
}

// Build validates records and expands them into a snapshot without touching
// the current one. It backs both Load and dry runs.
func (ix *Index) Build(records []models.POI) (*LoadReport, *Snapshot, error) {
	report := &LoadReport{}
	if len(records) == 0 {
		return report, nil, ErrEmptyDataset
	}

	entries := make([]Entry, 0, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			ve := ValidationError{Index: i, ID: rec.ID, Reason: err.Error()}
			report.Rejected = append(report.Rejected, ve)
			ix.logger.Warn("Skipping malformed POI record",
				zap.Int("index", i),
				zap.String("id", rec.ID),
				zap.String("reason", ve.Reason))
			continue
		}

		tokens := ix.expander.BuildTokens(rec)
		norm := make([]string, len(tokens))
		for j, tok := range tokens {
			norm[j] = normalizer.Normalize(tok)
		}
		entries = append(entries, Entry{POI: rec, Tokens: tokens, NormTokens: norm})
	}

	if len(entries) == 0 {
		return report, nil, ErrNoValidRecords
	}

	version, err := DatasetVersion(records)
	if err != nil {
		return report, nil, err
	}
	report.Version = version
	report.Indexed = len(entries)

	return report, &Snapshot{entries: entries, version: version, loadedAt: time.Now()}, nil
}

// DatasetVersion fingerprints a dataset. Identical record lists share a
// version, which lets caches drop entries computed against older data.
func DatasetVersion(records []models.POI) (string, error) {
	b, err := yaml.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("fingerprint dataset: %w", err)
	}
	return fmt.Sprintf("sha256:%x", sha256.Sum256(b))[:23], nil
}
