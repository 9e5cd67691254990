// Package memory provides the in-memory run store. The durable backends
// embed it and mirror its state to their media, so it also defines the
// snapshot form they exchange.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"keibacore/pkg/domain"
)

var _ domain.RunStore = (*Store)(nil)

// Store keeps completed runs in process memory. Suitable for tests and
// ephemeral deployments; durable backends embed it for read paths.
type Store struct {
	mu   sync.RWMutex
	runs map[string]domain.StoredRun
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{runs: make(map[string]domain.StoredRun)}
}

// SaveRun stores a completed run; duplicate IDs fail with ErrRunExists.
func (s *Store) SaveRun(_ context.Context, run domain.StoredRun) error {
	if run.ID == "" {
		return fmt.Errorf("run id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrRunExists)
	}
	s.runs[run.ID] = run
	return nil
}

// GetRun returns the stored run and whether it exists.
func (s *Store) GetRun(_ context.Context, id string) (domain.StoredRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok, nil
}

// ListRuns returns summaries ordered by ascending run ID.
func (s *Store) ListRuns(_ context.Context) ([]domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Snapshot is the full exported state a durable backend persists.
type Snapshot struct {
	Runs []domain.StoredRun `json:"runs"`
}

// ExportState captures all stored runs ordered by ascending run ID.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]domain.StoredRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return Snapshot{Runs: runs}
}

// ImportState replaces the store contents with the snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]domain.StoredRun, len(snapshot.Runs))
	for _, run := range snapshot.Runs {
		s.runs[run.ID] = run
	}
}
