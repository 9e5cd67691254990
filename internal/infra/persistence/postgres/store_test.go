package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestNewStoreSurfacesOpenFailure(t *testing.T) {
	boom := errors.New("connection refused")
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("driver: got %s want pgx", driver)
		}
		return nil, boom
	})
	defer restore()

	if _, err := NewStore("postgres://db.example/keibacore"); !errors.Is(err, boom) {
		t.Fatalf("expected open failure, got %v", err)
	}
}

func TestNewStoreDefaultsDSN(t *testing.T) {
	var seen string
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		seen = dsn
		return nil, errors.New("stop here")
	})
	defer restore()

	_, _ = NewStore("")
	if !strings.Contains(seen, "keibacore") {
		t.Fatalf("default DSN not applied: %q", seen)
	}
}

func TestOverrideSQLOpenRestores(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) {
		return nil, errors.New("hook")
	})
	restore()

	// sql.Open is lazy, so the restored hook succeeds without a server.
	db, err := sqlOpen(defaultDriver, defaultDSN)
	if err != nil {
		t.Fatalf("restored hook failed: %v", err)
	}
	_ = db.Close()
}
