package domain

import (
	"context"
	"errors"
	"time"
)

// ErrRunExists is returned by SaveRun when the run ID is already stored;
// runs are write-once.
var ErrRunExists = errors.New("run already exists")

// StoredRun is a completed pipeline run in persistable form: the registry
// snapshot that fixes column order, the row identities, and the feature
// columns themselves. Serving-time consumers load the snapshot to verify
// that their requested stage list reproduces the same column layout.
type StoredRun struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	StrictMode    bool             `json:"strict_mode"`
	PedigreeDepth int              `json:"pedigree_depth"`
	Features      []FeatureIndex   `json:"features"`
	Keys          []EntryKey       `json:"keys"`
	Columns       map[string][]any `json:"columns"`
}

// RunSummary is the listing projection of a stored run.
type RunSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	RowCount     int       `json:"row_count"`
	FeatureCount int       `json:"feature_count"`
}

// Summary derives the listing projection.
func (r StoredRun) Summary() RunSummary {
	return RunSummary{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		RowCount:     len(r.Keys),
		FeatureCount: len(r.Features),
	}
}

// RunStore persists completed pipeline runs. Implementations must be safe
// for concurrent use; runs are immutable once saved.
type RunStore interface {
	// SaveRun stores a completed run. Saving an ID that already exists
	// fails; runs are write-once.
	SaveRun(ctx context.Context, run StoredRun) error
	// GetRun returns the stored run and whether it exists.
	GetRun(ctx context.Context, id string) (StoredRun, bool, error)
	// ListRuns returns summaries ordered by ascending run ID.
	ListRuns(ctx context.Context) ([]RunSummary, error)
	// Close releases any backing resources.
	Close() error
}
