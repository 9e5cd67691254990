// Package postgres provides a PostgreSQL run store that mirrors the
// in-memory semantics, persisting each run as one JSONB row.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"keibacore/internal/infra/persistence/memory"
	"keibacore/pkg/domain"
)

var _ domain.RunStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/keibacore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the sql.Open hook for tests and returns a restore
// function.
func OverrideSQLOpen(open func(driver, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = open
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store persists runs to PostgreSQL while serving reads from an embedded
// in-memory store hydrated on open.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens a PostgreSQL-backed store using the provided DSN (falls
// back to defaultDSN), ensures the runs table exists, and hydrates the
// in-memory view.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure runs table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY id`)
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

// SaveRun inserts the run into PostgreSQL and the in-memory view.
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
	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs (id, payload) VALUES ($1, $2)`, run.ID, payload); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return s.Store.SaveRun(ctx, run)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
