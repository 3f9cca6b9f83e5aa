// Package persistence selects a concrete session store backend.
package persistence

import (
	"fmt"
	"os"

	"invoiceledger/internal/core"
	"invoiceledger/internal/infra/persistence/postgres"
	"invoiceledger/internal/infra/persistence/sqlite"
	"invoiceledger/pkg/domain"
)

// Driver identifies a concrete store implementation.
type Driver string

const (
	// DriverMemory keeps all state resident for the session only.
	DriverMemory Driver = "memory"
	// DriverSQLite snapshots session state into an embedded sqlite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres snapshots session state into a PostgreSQL server.
	DriverPostgres Driver = "postgres"
)

// Open selects a store backend using environment variables. The default is
// the in-memory session store; durability is opt-in.
//
//	INVOICELEDGER_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
//	INVOICELEDGER_SQLITE_PATH: path to sqlite file (default ./invoiceledger.db)
//	INVOICELEDGER_POSTGRES_DSN: postgres DSN when driver=postgres
func Open() (domain.PersistentStore, error) {
	driver := os.Getenv("INVOICELEDGER_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverMemory)
	}
	switch Driver(driver) {
	case DriverMemory:
		return core.NewMemoryStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("INVOICELEDGER_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(os.Getenv("INVOICELEDGER_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
