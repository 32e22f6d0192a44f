package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenMemory_SchemaApplied(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"OntologyObject", "PropertyDescriptor", "DomainDescriptor", "PropertyDomain", "ObjectProperty"} {
		var n int
		if err := db.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n); err != nil || n != 1 {
			t.Errorf("table %s missing: %v n=%d", table, err, n)
		}
	}
}

func TestOpen_CreatesFileAndEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "nested", "store.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.DB.ExecContext(ctx,
		"INSERT INTO OntologyObject (ObjectURI, Container) VALUES ('urn:x', 'c')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.DB.ExecContext(ctx,
		"INSERT INTO OntologyObject (ObjectURI, Container) VALUES ('urn:x', 'c')"); err == nil {
		t.Fatalf("duplicate object URI must violate uniqueness")
	}
	// Insert-or-skip form must swallow the conflict instead.
	res, err := db.DB.ExecContext(ctx,
		"INSERT INTO OntologyObject (ObjectURI, Container) VALUES ('urn:x', 'c') ON CONFLICT (ObjectURI) DO NOTHING")
	if err != nil {
		t.Fatalf("insert-or-skip: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 0 {
		t.Fatalf("skip must affect zero rows, got %d", n)
	}
}

func TestDialect_Capabilities(t *testing.T) {
	d := Dialect{}
	if d.Name() != "sqlite" || !d.ReturnsLastInsertID() {
		t.Fatalf("dialect misconfigured: %s %v", d.Name(), d.ReturnsLastInsertID())
	}
	if got := d.Rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite keeps question placeholders: %q", got)
	}
	if got := d.AnalyzeStatement("ObjectProperty"); got != "ANALYZE ObjectProperty" {
		t.Fatalf("analyze statement: %q", got)
	}
}

func TestObjectProperty_TypeTagCheck(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.DB.ExecContext(ctx,
		"INSERT INTO OntologyObject (ObjectURI, Container) VALUES ('urn:o', 'c')"); err != nil {
		t.Fatalf("object: %v", err)
	}
	if _, err := db.DB.ExecContext(ctx,
		"INSERT INTO PropertyDescriptor (PropertyURI, Name, RangeURI, Container, Project) VALUES ('urn:p', 'p', 'r', 'c', 'c')"); err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if _, err := db.DB.ExecContext(ctx,
		"INSERT INTO ObjectProperty (ObjectId, PropertyId, TypeTag, StringValue) VALUES (1, 1, 'x', 'v')"); err == nil {
		t.Fatalf("unknown storage tag must violate the check constraint")
	}
}
