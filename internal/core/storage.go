package core

import (
	"fmt"
	"os"

	"keibacore/internal/infra/persistence/memory"
	"keibacore/internal/infra/persistence/postgres"
	"keibacore/internal/infra/persistence/sqlite"
	"keibacore/pkg/domain"
)

// StorageDriver identifies a concrete run-store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenRunStore selects a run-store backend using environment variables.
// Defaults to sqlite when unset.
//
//	KEIBACORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	KEIBACORE_SQLITE_PATH: path to sqlite file (default ./keibacore.db)
//	KEIBACORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenRunStore() (domain.RunStore, error) {
	driver := os.Getenv("KEIBACORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("KEIBACORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("KEIBACORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
