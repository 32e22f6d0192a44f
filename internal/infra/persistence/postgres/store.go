// Package postgres provides the Postgres backend for the ontology store,
// applying the same logical schema as the sqlite backend on startup.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ontocore/internal/infra/persistence"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultDSN = "postgres://localhost/ontocore?sslmode=disable"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS OntologyObject (
	ObjectId BIGSERIAL PRIMARY KEY,
	ObjectURI TEXT NOT NULL,
	Container TEXT NOT NULL,
	OwnerObjectId BIGINT NULL REFERENCES OntologyObject(ObjectId),
	UNIQUE (ObjectURI)
);
CREATE INDEX IF NOT EXISTS IX_OntologyObject_Container ON OntologyObject (Container);
CREATE TABLE IF NOT EXISTS PropertyDescriptor (
	PropertyId BIGSERIAL PRIMARY KEY,
	PropertyURI TEXT NOT NULL,
	Name TEXT NOT NULL,
	Label TEXT NOT NULL DEFAULT '',
	Description TEXT NOT NULL DEFAULT '',
	RangeURI TEXT NOT NULL,
	ConceptURI TEXT NOT NULL DEFAULT '',
	Format TEXT NOT NULL DEFAULT '',
	Container TEXT NOT NULL,
	Project TEXT NOT NULL,
	Required BOOLEAN NOT NULL DEFAULT FALSE,
	Hidden BOOLEAN NOT NULL DEFAULT FALSE,
	MvEnabled BOOLEAN NOT NULL DEFAULT FALSE,
	LookupContainer TEXT NOT NULL DEFAULT '',
	LookupSchema TEXT NOT NULL DEFAULT '',
	LookupQuery TEXT NOT NULL DEFAULT '',
	ImportAliases TEXT NOT NULL DEFAULT '',
	UNIQUE (PropertyURI, Project)
);
CREATE TABLE IF NOT EXISTS DomainDescriptor (
	DomainId BIGSERIAL PRIMARY KEY,
	DomainURI TEXT NOT NULL,
	Name TEXT NOT NULL,
	Container TEXT NOT NULL,
	Project TEXT NOT NULL,
	UNIQUE (DomainURI, Project)
);
CREATE TABLE IF NOT EXISTS PropertyDomain (
	PropertyId BIGINT NOT NULL REFERENCES PropertyDescriptor(PropertyId),
	DomainId BIGINT NOT NULL REFERENCES DomainDescriptor(DomainId),
	Required BOOLEAN NOT NULL DEFAULT FALSE,
	SortOrder INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (PropertyId, DomainId)
);
CREATE TABLE IF NOT EXISTS ObjectProperty (
	ObjectId BIGINT NOT NULL REFERENCES OntologyObject(ObjectId),
	PropertyId BIGINT NOT NULL REFERENCES PropertyDescriptor(PropertyId),
	TypeTag CHAR(1) NOT NULL CHECK (TypeTag IN ('s','f','d')),
	StringValue TEXT NULL,
	FloatValue DOUBLE PRECISION NULL,
	DateTimeValue TIMESTAMPTZ NULL,
	MvIndicator TEXT NULL,
	PRIMARY KEY (ObjectId, PropertyId)
);
CREATE INDEX IF NOT EXISTS IX_ObjectProperty_PropertyId ON ObjectProperty (PropertyId)
`

// Dialect implements the Postgres flavor of the persistence seam.
type Dialect struct{}

// Name implements persistence.Dialect.
func (Dialect) Name() string { return "postgres" }

// Rebind implements persistence.Dialect.
func (Dialect) Rebind(query string) string { return persistence.NumberedRebind(query) }

// ReturnsLastInsertID implements persistence.Dialect; pgx does not support
// LastInsertId, identity inserts go through RETURNING.
func (Dialect) ReturnsLastInsertID() bool { return false }

// InsertReturning implements persistence.Dialect.
func (Dialect) InsertReturning(query, idColumn string) string {
	return query + " RETURNING " + idColumn
}

// AnalyzeStatement implements persistence.Dialect.
func (Dialect) AnalyzeStatement(table string) string { return "ANALYZE " + table }

var _ persistence.Dialect = Dialect{}

// Open connects to Postgres with the given DSN (falling back to a local
// default), verifies connectivity, and applies the ontology schema.
func Open(ctx context.Context, dsn string) (*persistence.Database, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := persistence.ApplyDDL(ctx, db, schemaDDL); err != nil {
		return nil, err
	}
	return &persistence.Database{DB: db, Dialect: Dialect{}}, nil
}
