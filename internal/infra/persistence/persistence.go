// Package persistence is the database seam for the ontology store. Queries
// are written once with '?' placeholders; the dialect rebinds them for the
// backend and answers the capability questions (identity retrieval, planner
// statistics) that differ between sqlite and postgres.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Querier is the subset of database/sql satisfied by both *sql.DB and
// *sql.Tx, so store operations run unchanged inside caller transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Dialect captures backend differences behind the shared SQL text.
type Dialect interface {
	Name() string
	// Rebind rewrites '?' placeholders into the backend's native form.
	Rebind(query string) string
	// ReturnsLastInsertID reports whether sql.Result.LastInsertId works;
	// backends answering false retrieve identities via InsertReturning.
	ReturnsLastInsertID() bool
	// InsertReturning appends the backend's RETURNING clause for idColumn.
	InsertReturning(query, idColumn string) string
	// AnalyzeStatement returns the planner statistics refresh for a table.
	AnalyzeStatement(table string) string
}

// Database pairs an open connection pool with its dialect. Store code routes
// every statement through the helpers here so rebinding happens in one place.
type Database struct {
	DB      *sql.DB
	Dialect Dialect
}

// Exec runs a statement on q after placeholder rebinding.
func (d *Database) Exec(ctx context.Context, q Querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, d.Dialect.Rebind(query), args...)
}

// Query runs a query on q after placeholder rebinding.
func (d *Database) Query(ctx context.Context, q Querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, d.Dialect.Rebind(query), args...)
}

// QueryRow runs a single-row query on q after placeholder rebinding.
func (d *Database) QueryRow(ctx context.Context, q Querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, d.Dialect.Rebind(query), args...)
}

// InsertReturningID executes an insert and resolves the generated id through
// whichever mechanism the dialect supports.
func (d *Database) InsertReturningID(ctx context.Context, q Querier, query, idColumn string, args ...any) (int64, error) {
	if d.Dialect.ReturnsLastInsertID() {
		res, err := d.Exec(ctx, q, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	err := d.QueryRow(ctx, q, d.Dialect.InsertReturning(query, idColumn), args...).Scan(&id)
	return id, err
}

// UpdateStatistics refreshes planner statistics for the given tables.
// Failures are reported but callers generally treat them as advisory.
func (d *Database) UpdateStatistics(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := d.DB.ExecContext(ctx, d.Dialect.AnalyzeStatement(table)); err != nil {
			return fmt.Errorf("analyze %s: %w", table, err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (d *Database) Close() error { return d.DB.Close() }

// ApplyDDL executes a semicolon-separated DDL script statement by statement.
func ApplyDDL(ctx context.Context, db *sql.DB, ddl string) error {
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}

// QuestionDialect is the embeddable no-op rebinder for backends that accept
// '?' placeholders natively.
type QuestionDialect struct{}

// Rebind implements Dialect.
func (QuestionDialect) Rebind(query string) string { return query }

// NumberedRebind rewrites '?' placeholders as $1, $2, ... for backends with
// numbered parameters, leaving quoted text untouched.
func NumberedRebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '?' && !inSingle && !inDouble:
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
