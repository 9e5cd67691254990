// Package sqlite provides an embedded SQLite run store. Each run is one
// row of JSON payload; reads are served from an embedded in-memory store
// hydrated on open.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"keibacore/internal/infra/persistence/memory"
	"keibacore/pkg/domain"
)

var _ domain.RunStore = (*Store)(nil)

// Store persists runs to a single SQLite file.
type Store struct {
	*memory.Store
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the SQLite file and hydrates the in-memory
// view from it. An empty path defaults to keibacore.db in the working
// directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "keibacore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT payload FROM runs ORDER BY id`)
	if err != nil {
		return fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		var run domain.StoredRun
		if err := json.Unmarshal(payload, &run); err != nil {
			return fmt.Errorf("decode run: %w", err)
		}
		snapshot.Runs = append(snapshot.Runs, run)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate runs: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

// SaveRun inserts the run into SQLite and the in-memory view. Runs are
// write-once; the in-memory duplicate check runs before the insert so a
// failed insert leaves no partial state.
func (s *Store) SaveRun(ctx context.Context, run domain.StoredRun) error {
	if _, exists, err := s.GetRun(ctx, run.ID); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrRunExists)
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs (id, payload) VALUES (?, ?)`, run.ID, payload); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return s.Store.SaveRun(ctx, run)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
