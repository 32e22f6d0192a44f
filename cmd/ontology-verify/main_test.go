package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ontocore/internal/core"
)

// useFileStore points the environment at a throwaway sqlite file so the
// command under test and the fixture writer see the same data.
func useFileStore(t *testing.T) {
	t.Helper()
	t.Setenv("ONTOCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("ONTOCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "verify.db"))
}

func seedHealthyStore(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	db, err := core.OpenDatabase(ctx)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = db.Close() }()

	stmts := []string{
		"INSERT INTO OntologyObject (ObjectURI, Container) VALUES ('urn:lsid:test:Obj:1', 'home')",
		"INSERT INTO PropertyDescriptor (PropertyURI, Name, RangeURI, Container, Project) VALUES ('urn:p#weight', 'weight', 'http://www.w3.org/2001/XMLSchema#double', 'home', 'home')",
		"INSERT INTO DomainDescriptor (DomainURI, Name, Container, Project) VALUES ('urn:d#Specimen', 'Specimen', 'home', 'home')",
		"INSERT INTO PropertyDomain (PropertyId, DomainId) VALUES (1, 1)",
		"INSERT INTO ObjectProperty (ObjectId, PropertyId, TypeTag, FloatValue) VALUES (1, 1, 'f', 12.5)",
	}
	for _, stmt := range stmts {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
}

// seedDamage introduces one violation per check. Referential breakage is
// written with foreign keys disabled on a pinned connection, the way damage
// arrives in practice through out-of-band edits and botched restores.
func seedDamage(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	db, err := core.OpenDatabase(ctx)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = db.Close() }()

	conn, err := db.DB.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer func() { _ = conn.Close() }()
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disable fk: %v", err)
	}

	stmts := []string{
		// Orphan value row.
		"INSERT INTO ObjectProperty (ObjectId, PropertyId, TypeTag, StringValue) VALUES (999, 1, 's', 'x')",
		// Dangling membership.
		"INSERT INTO PropertyDomain (PropertyId, DomainId) VALUES (1, 999)",
		// Missing owner.
		"INSERT INTO OntologyObject (ObjectURI, Container, OwnerObjectId) VALUES ('urn:lsid:test:Obj:2', 'home', 999)",
		// Tag and value column disagree.
		"INSERT INTO OntologyObject (ObjectURI, Container) VALUES ('urn:lsid:test:Obj:3', 'home')",
		"INSERT INTO ObjectProperty (ObjectId, PropertyId, TypeTag, FloatValue) VALUES (3, 1, 's', 1.0)",
		// Neither value nor indicator.
		"INSERT INTO OntologyObject (ObjectURI, Container) VALUES ('urn:lsid:test:Obj:4', 'home')",
		"INSERT INTO ObjectProperty (ObjectId, PropertyId, TypeTag) VALUES (4, 1, 's')",
		// Unrecognized range URI.
		"INSERT INTO PropertyDescriptor (PropertyURI, Name, RangeURI, Container, Project) VALUES ('urn:p#legacy', 'legacy', 'urn:legacy:blob', 'home', 'home')",
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
}

func TestCLI_CleanStorePasses(t *testing.T) {
	useFileStore(t)
	seedHealthyStore(t)

	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Store verification passed.") {
		t.Fatalf("missing pass message:\n%s", stdout.String())
	}
}

func TestCLI_DamagedStoreReportsEveryCheck(t *testing.T) {
	useFileStore(t)
	seedHealthyStore(t)
	seedDamage(t)

	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{
		"ObjectProperty(ObjectId=999, PropertyId=1) references a missing row",
		"PropertyDomain(PropertyId=1, DomainId=999) references a missing descriptor",
		"OntologyObject(urn:lsid:test:Obj:2) owner id 999 does not exist",
		"ObjectProperty(ObjectId=3, PropertyId=1) tag s does not match its value column",
		"ObjectProperty(ObjectId=4, PropertyId=1) carries no value and no indicator",
		`PropertyDescriptor(urn:p#legacy, project=home) range "urn:legacy:blob" is not a recognized type`,
		"found 6 problem(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_QuietSuppressesSummaryLines(t *testing.T) {
	useFileStore(t)
	seedHealthyStore(t)

	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-quiet"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if strings.Contains(stdout.String(), "orphaned property values:") {
		t.Fatalf("quiet mode must omit per-check lines:\n%s", stdout.String())
	}
}

func TestCLI_FlagErrorExitsTwo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestCLI_UnknownDriverFails(t *testing.T) {
	t.Setenv("ONTOCORE_STORAGE_DRIVER", "oracle")
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "open store") {
		t.Fatalf("stderr missing open failure: %s", stderr.String())
	}
}
