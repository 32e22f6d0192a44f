package core

import (
	"context"
	"testing"

	"ontocore/internal/infra/persistence/sqlite"
	"ontocore/pkg/ontology"
)

const (
	xsdString = "http://www.w3.org/2001/XMLSchema#string"
	xsdInt    = "http://www.w3.org/2001/XMLSchema#int"
	xsdDouble = "http://www.w3.org/2001/XMLSchema#double"
	xsdBool   = "http://www.w3.org/2001/XMLSchema#boolean"
	xsdDate   = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// newTestManager opens an in-memory database and a small container fixture:
// two projects, a nested folder under the first, plus the shared container.
func newTestManager(t *testing.T, opts ...Option) (*Manager, *ontology.ContainerTree) {
	t.Helper()
	db, err := sqlite.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	tree := ontology.NewContainerTree()
	for _, c := range []Container{
		{ID: "projA", Name: "Project A"},
		{ID: "projA/sub", Name: "Subfolder", ParentID: "projA"},
		{ID: "projB", Name: "Project B"},
	} {
		if err := tree.Add(c); err != nil {
			t.Fatalf("add container %s: %v", c.ID, err)
		}
	}
	return NewManager(db, tree, opts...), tree
}

func mustEnsureProperty(t *testing.T, m *Manager, pd PropertyDescriptor) PropertyDescriptor {
	t.Helper()
	out, err := m.EnsurePropertyDescriptor(context.Background(), pd)
	if err != nil {
		t.Fatalf("ensure property %s: %v", pd.PropertyURI, err)
	}
	return out
}

func mustEnsureDomain(t *testing.T, m *Manager, dd DomainDescriptor) DomainDescriptor {
	t.Helper()
	out, err := m.EnsureDomainDescriptor(context.Background(), dd)
	if err != nil {
		t.Fatalf("ensure domain %s: %v", dd.DomainURI, err)
	}
	return out
}
