// Package sqlite opens the default embedded backend for the ontology store
// and applies its schema on startup.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ontocore/internal/infra/persistence"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS OntologyObject (
	ObjectId INTEGER PRIMARY KEY AUTOINCREMENT,
	ObjectURI TEXT NOT NULL,
	Container TEXT NOT NULL,
	OwnerObjectId INTEGER NULL REFERENCES OntologyObject(ObjectId),
	UNIQUE (ObjectURI)
);
CREATE INDEX IF NOT EXISTS IX_OntologyObject_Container ON OntologyObject (Container);
CREATE TABLE IF NOT EXISTS PropertyDescriptor (
	PropertyId INTEGER PRIMARY KEY AUTOINCREMENT,
	PropertyURI TEXT NOT NULL,
	Name TEXT NOT NULL,
	Label TEXT NOT NULL DEFAULT '',
	Description TEXT NOT NULL DEFAULT '',
	RangeURI TEXT NOT NULL,
	ConceptURI TEXT NOT NULL DEFAULT '',
	Format TEXT NOT NULL DEFAULT '',
	Container TEXT NOT NULL,
	Project TEXT NOT NULL,
	Required INTEGER NOT NULL DEFAULT 0,
	Hidden INTEGER NOT NULL DEFAULT 0,
	MvEnabled INTEGER NOT NULL DEFAULT 0,
	LookupContainer TEXT NOT NULL DEFAULT '',
	LookupSchema TEXT NOT NULL DEFAULT '',
	LookupQuery TEXT NOT NULL DEFAULT '',
	ImportAliases TEXT NOT NULL DEFAULT '',
	UNIQUE (PropertyURI, Project)
);
CREATE TABLE IF NOT EXISTS DomainDescriptor (
	DomainId INTEGER PRIMARY KEY AUTOINCREMENT,
	DomainURI TEXT NOT NULL,
	Name TEXT NOT NULL,
	Container TEXT NOT NULL,
	Project TEXT NOT NULL,
	UNIQUE (DomainURI, Project)
);
CREATE TABLE IF NOT EXISTS PropertyDomain (
	PropertyId INTEGER NOT NULL REFERENCES PropertyDescriptor(PropertyId),
	DomainId INTEGER NOT NULL REFERENCES DomainDescriptor(DomainId),
	Required INTEGER NOT NULL DEFAULT 0,
	SortOrder INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (PropertyId, DomainId)
);
CREATE TABLE IF NOT EXISTS ObjectProperty (
	ObjectId INTEGER NOT NULL REFERENCES OntologyObject(ObjectId),
	PropertyId INTEGER NOT NULL REFERENCES PropertyDescriptor(PropertyId),
	TypeTag TEXT NOT NULL CHECK (TypeTag IN ('s','f','d')),
	StringValue TEXT NULL,
	FloatValue REAL NULL,
	DateTimeValue TIMESTAMP NULL,
	MvIndicator TEXT NULL,
	PRIMARY KEY (ObjectId, PropertyId)
);
CREATE INDEX IF NOT EXISTS IX_ObjectProperty_PropertyId ON ObjectProperty (PropertyId)
`

// Dialect implements the sqlite flavor of the persistence seam.
type Dialect struct{ persistence.QuestionDialect }

// Name implements persistence.Dialect.
func (Dialect) Name() string { return "sqlite" }

// ReturnsLastInsertID implements persistence.Dialect.
func (Dialect) ReturnsLastInsertID() bool { return true }

// InsertReturning implements persistence.Dialect; rarely used because sqlite
// reports the last insert rowid.
func (Dialect) InsertReturning(query, idColumn string) string {
	return query + " RETURNING " + idColumn
}

// AnalyzeStatement implements persistence.Dialect.
func (Dialect) AnalyzeStatement(table string) string { return "ANALYZE " + table }

var _ persistence.Dialect = Dialect{}

// Open creates or opens a sqlite-backed database at path and applies the
// ontology schema. An empty path defaults to ontocore.db in the working
// directory.
func Open(ctx context.Context, path string) (*persistence.Database, error) {
	if path == "" {
		path = "ontocore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	return open(ctx, path, 0)
}

// OpenMemory opens a private in-memory database, pinned to a single
// connection so the schema survives pool recycling. Intended for tests.
func OpenMemory(ctx context.Context) (*persistence.Database, error) {
	return open(ctx, ":memory:", 1)
}

func open(ctx context.Context, dsn string, maxConns int) (*persistence.Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := persistence.ApplyDDL(ctx, db, schemaDDL); err != nil {
		return nil, err
	}
	return &persistence.Database{DB: db, Dialect: Dialect{}}, nil
}
