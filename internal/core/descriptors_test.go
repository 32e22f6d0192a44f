package core

import (
	"context"
	"errors"
	"testing"

	"ontocore/pkg/ontology"
)

func TestEnsurePropertyDescriptor_Idempotent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	pd := PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:name", RangeURI: xsdString, Container: "projA"}

	first := mustEnsureProperty(t, m, pd)
	if first.PropertyID == 0 {
		t.Fatalf("ensure must assign an id")
	}
	if first.Name != "name" {
		t.Fatalf("name should default from the URI suffix, got %q", first.Name)
	}
	if first.Project != "projA" {
		t.Fatalf("project = %q, want projA", first.Project)
	}

	second := mustEnsureProperty(t, m, pd)
	if second.PropertyID != first.PropertyID {
		t.Fatalf("re-ensure created a new row: %d vs %d", second.PropertyID, first.PropertyID)
	}
	// Same URI from a folder in the same project resolves to the same row.
	fromSub, err := m.GetPropertyDescriptor(ctx, pd.PropertyURI, "projA/sub")
	if err != nil || fromSub.PropertyID != first.PropertyID {
		t.Fatalf("folder lookup: %v %+v", err, fromSub)
	}
}

func TestEnsurePropertyDescriptor_ProjectIsolation(t *testing.T) {
	m, _ := newTestManager(t)
	pd := PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:shared-name", RangeURI: xsdString, Container: "projA"}
	a := mustEnsureProperty(t, m, pd)
	pd.Container = "projB"
	b := mustEnsureProperty(t, m, pd)
	if a.PropertyID == b.PropertyID {
		t.Fatalf("same URI in different projects must be distinct descriptors")
	}
}

func TestEnsurePropertyDescriptor_SharedCopyWins(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	uri := "urn:lsid:test:Prop:global"
	proj := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdString, Container: "projA"})
	shared := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdString, Container: ontology.SharedContainerID})
	if proj.PropertyID == shared.PropertyID {
		t.Fatalf("shared scope must hold its own row")
	}
	m.Caches().Clear()
	got, err := m.GetPropertyDescriptor(ctx, uri, "projA/sub")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PropertyID != shared.PropertyID {
		t.Fatalf("lookup resolved project copy %d, want shared copy %d", got.PropertyID, shared.PropertyID)
	}
}

func TestEnsurePropertyDescriptor_CosmeticUpdate(t *testing.T) {
	m, _ := newTestManager(t)
	uri := "urn:lsid:test:Prop:label"
	mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdString, Container: "projA", Label: "Old"})

	// A folder caller inside the project is not authoritative; the stored
	// label survives.
	got := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdString, Container: "projA/sub", Label: "Folder"})
	if got.Label != "Old" {
		t.Fatalf("non-authoritative cosmetic change applied: %q", got.Label)
	}

	// The project root is authoritative.
	got = mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdString, Container: "projA", Label: "New"})
	if got.Label != "New" {
		t.Fatalf("authoritative cosmetic change dropped: %q", got.Label)
	}
	reread, err := m.GetPropertyDescriptor(context.Background(), uri, "projA")
	if err != nil || reread.Label != "New" {
		t.Fatalf("update not persisted: %v %+v", err, reread)
	}
}

func TestEnsurePropertyDescriptor_TypeImmutableWithValues(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	uri := "urn:lsid:test:Prop:typed"
	pd := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdInt, Container: "projA"})

	// Without stored values an authoritative caller may retype.
	retyped, err := m.EnsurePropertyDescriptor(ctx, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdDouble, Container: "projA"})
	if err != nil || retyped.RangeURI != xsdDouble {
		t.Fatalf("retype without values: %v %+v", err, retyped)
	}
	if retyped.PropertyID != pd.PropertyID {
		t.Fatalf("retype must keep the row identity")
	}

	if err := m.InsertProperties(ctx, "projA", "", PropertyValue{
		ObjectURI: "urn:lsid:test:Obj:typed", PropertyURI: uri, Value: 1.5,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err = m.EnsurePropertyDescriptor(ctx, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdString, Container: "projA"})
	var tce *TypeConflictError
	if !errors.As(err, &tce) {
		t.Fatalf("expected TypeConflictError, got %v", err)
	}
	if tce.OldRangeURI != xsdDouble || tce.NewRangeURI != xsdString {
		t.Fatalf("conflict detail wrong: %+v", tce)
	}
}

func TestEnsurePropertyDomain_PerDomainFlags(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	pd := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:member", RangeURI: xsdString, Container: "projA"})
	d1 := mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:one", Container: "projA"})
	d2 := mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:two", Container: "projA"})

	if err := m.EnsurePropertyDomain(ctx, pd, d1, true, 0); err != nil {
		t.Fatalf("join d1: %v", err)
	}
	if err := m.EnsurePropertyDomain(ctx, pd, d2, false, 5); err != nil {
		t.Fatalf("join d2: %v", err)
	}

	v1, err := m.GetPropertiesForType(ctx, d1.DomainURI, "projA")
	if err != nil || len(v1) != 1 {
		t.Fatalf("views d1: %v %d", err, len(v1))
	}
	v2, err := m.GetPropertiesForType(ctx, d2.DomainURI, "projA")
	if err != nil || len(v2) != 1 {
		t.Fatalf("views d2: %v %d", err, len(v2))
	}
	if !v1[0].Required || v2[0].Required {
		t.Fatalf("required flag must be per membership: d1=%v d2=%v", v1[0].Required, v2[0].Required)
	}
	if v2[0].SortOrder != 5 {
		t.Fatalf("sort order lost: %d", v2[0].SortOrder)
	}

	// Re-ensure updates unconditionally.
	if err := m.EnsurePropertyDomain(ctx, pd, d1, false, 9); err != nil {
		t.Fatalf("rejoin d1: %v", err)
	}
	v1, err = m.GetPropertiesForType(ctx, d1.DomainURI, "projA")
	if err != nil || v1[0].Required || v1[0].SortOrder != 9 {
		t.Fatalf("membership update dropped: %v %+v", err, v1)
	}
}

func TestGetPropertiesForType_SortOrder(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	dd := mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:sorted", Container: "projA"})
	uris := []string{"urn:lsid:test:Prop:c", "urn:lsid:test:Prop:a", "urn:lsid:test:Prop:b"}
	orders := []int{2, 0, 1}
	for i, uri := range uris {
		pd := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: uri, RangeURI: xsdString, Container: "projA"})
		if err := m.EnsurePropertyDomain(ctx, pd, dd, false, orders[i]); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	views, err := m.GetPropertiesForType(ctx, dd.DomainURI, "projA")
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	want := []string{"urn:lsid:test:Prop:a", "urn:lsid:test:Prop:b", "urn:lsid:test:Prop:c"}
	for i, v := range views {
		if v.PropertyURI != want[i] {
			t.Fatalf("position %d: %s, want %s", i, v.PropertyURI, want[i])
		}
	}
}

func TestDeleteDomain_SparesMultiDomainDescriptors(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	only := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:only", RangeURI: xsdString, Container: "projA"})
	both := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:both", RangeURI: xsdString, Container: "projA"})
	d1 := mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:gone", Container: "projA"})
	d2 := mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:kept", Container: "projA"})
	for _, join := range []struct {
		pd PropertyDescriptor
		dd DomainDescriptor
	}{{only, d1}, {both, d1}, {both, d2}} {
		if err := m.EnsurePropertyDomain(ctx, join.pd, join.dd, false, 0); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	if err := m.DeleteDomain(ctx, d1.DomainURI, "projA"); err != nil {
		t.Fatalf("delete domain: %v", err)
	}
	if _, err := m.GetDomainDescriptor(ctx, d1.DomainURI, "projA"); err == nil {
		t.Fatalf("deleted domain still resolvable")
	}
	if _, err := m.GetPropertyDescriptor(ctx, only.PropertyURI, "projA"); err == nil {
		t.Fatalf("sole-membership descriptor must go with its domain")
	}
	if _, err := m.GetPropertyDescriptor(ctx, both.PropertyURI, "projA"); err != nil {
		t.Fatalf("descriptor still referenced by another domain was deleted: %v", err)
	}
}

func TestDeleteType_RemovesObjectsAndDomain(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	pd := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:dt", RangeURI: xsdString, Container: "projA"})
	dd := mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:dt", Container: "projA"})
	if err := m.EnsurePropertyDomain(ctx, pd, dd, false, 0); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := m.InsertProperties(ctx, "projA", "", PropertyValue{
		ObjectURI: "urn:lsid:test:Obj:dt", PropertyURI: pd.PropertyURI, Value: "x",
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := m.DeleteType(ctx, dd.DomainURI, "projA"); err != nil {
		t.Fatalf("delete type: %v", err)
	}
	if _, err := m.GetObject(ctx, "projA", "urn:lsid:test:Obj:dt"); err == nil {
		t.Fatalf("objects of the type must be deleted")
	}
	if _, err := m.GetDomainDescriptor(ctx, dd.DomainURI, "projA"); err == nil {
		t.Fatalf("domain must be deleted")
	}
}

func TestGetPropertyDescriptor_NotFound(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.GetPropertyDescriptor(context.Background(), "urn:lsid:test:Prop:ghost", "projA")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "property" {
		t.Fatalf("expected property NotFoundError, got %v", err)
	}
}
