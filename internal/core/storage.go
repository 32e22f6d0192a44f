package core

import (
	"context"
	"fmt"
	"os"

	"ontocore/internal/infra/persistence"
	"ontocore/internal/infra/persistence/postgres"
	"ontocore/internal/infra/persistence/sqlite"
)

// OpenDatabase selects and opens the backing database from environment
// variables.
//
//	ONTOCORE_STORAGE_DRIVER: memory|sqlite|postgres (default memory)
//	ONTOCORE_SQLITE_PATH: database file when driver=sqlite (default ./ontocore.db)
//	ONTOCORE_POSTGRES_DSN: connection string when driver=postgres
func OpenDatabase(ctx context.Context) (*persistence.Database, error) {
	driver := os.Getenv("ONTOCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = "memory"
	}
	switch driver {
	case "memory":
		return sqlite.OpenMemory(ctx)
	case "sqlite":
		path := os.Getenv("ONTOCORE_SQLITE_PATH")
		if path == "" {
			path = "./ontocore.db"
		}
		return sqlite.Open(ctx, path)
	case "postgres":
		return postgres.Open(ctx, os.Getenv("ONTOCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("ontology: unknown storage driver %q", driver)
	}
}
