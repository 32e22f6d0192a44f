package core

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestPropertyColumn_ValueSQLShapes(t *testing.T) {
	cases := []struct {
		name     string
		rangeURI string
		want     []string
	}{
		{"string", xsdString, []string{"op.StringValue"}},
		{"int", xsdInt, []string{"CAST(", "op.FloatValue", "AS INTEGER"}},
		{"double", xsdDouble, []string{"op.FloatValue"}},
		{"boolean", xsdBool, []string{"CASE", "WHEN 1.0 THEN 1", "WHEN 0.0 THEN 0"}},
		{"datetime", xsdDate, []string{"op.DateTimeValue"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			col := NewPropertyColumn(PropertyDescriptor{PropertyID: 7, RangeURI: tc.rangeURI}, "o.ObjectId")
			got := col.ValueSQL()
			for _, frag := range tc.want {
				if !strings.Contains(got, frag) {
					t.Errorf("%s missing %q", got, frag)
				}
			}
			if !strings.Contains(got, "op.PropertyId = 7") || !strings.Contains(got, "op.ObjectId = o.ObjectId") {
				t.Errorf("correlation missing: %s", got)
			}
		})
	}
}

func TestPropertyColumn_MvIndicatorSQL(t *testing.T) {
	col := NewPropertyColumn(PropertyDescriptor{PropertyID: 3, RangeURI: xsdDouble}, "o.ObjectId")
	got := col.MvIndicatorSQL()
	if !strings.Contains(got, "op.MvIndicator") || !strings.Contains(got, "op.PropertyId = 3") {
		t.Fatalf("unexpected indicator sql: %s", got)
	}
}

// The generated subqueries must actually run against the store.
func TestPropertyColumn_ExecutesAgainstStore(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	count := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:pc-count", RangeURI: xsdInt, Container: "projA"})
	alive := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:pc-alive", RangeURI: xsdBool, Container: "projA"})
	if err := m.InsertProperties(ctx, "projA", "",
		PropertyValue{ObjectURI: "urn:lsid:test:Obj:pc", PropertyURI: count.PropertyURI, Value: 42},
		PropertyValue{ObjectURI: "urn:lsid:test:Obj:pc", PropertyURI: alive.PropertyURI, Value: true},
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	countCol := NewPropertyColumn(count, "o.ObjectId")
	aliveCol := NewPropertyColumn(alive, "o.ObjectId")
	query := "SELECT " + countCol.ValueSQL() + ", " + aliveCol.ValueSQL() +
		" FROM OntologyObject o WHERE o.ObjectURI = ?"
	var gotCount int64
	var gotAlive int64
	if err := m.DB().QueryRow(ctx, m.DB().DB, query, "urn:lsid:test:Obj:pc").Scan(&gotCount, &gotAlive); err != nil {
		t.Fatalf("projection query: %v", err)
	}
	if gotCount != 42 || gotAlive != 1 {
		t.Fatalf("projected (%d, %d), want (42, 1)", gotCount, gotAlive)
	}

	// An object without the property projects NULL, never an error.
	if _, err := m.EnsureObject(ctx, "projA", "urn:lsid:test:Obj:pc-empty", nil); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	var nullCount sql.NullInt64
	if err := m.DB().QueryRow(ctx, m.DB().DB,
		"SELECT "+countCol.ValueSQL()+" FROM OntologyObject o WHERE o.ObjectURI = ?",
		"urn:lsid:test:Obj:pc-empty").Scan(&nullCount); err != nil {
		t.Fatalf("null projection: %v", err)
	}
	if nullCount.Valid {
		t.Fatalf("expected NULL for absent property, got %d", nullCount.Int64)
	}
}

type staticResolver map[string]TableInfo

func (r staticResolver) ResolveTable(_ context.Context, container, schema, query string) (TableInfo, bool) {
	ti, ok := r[container+"/"+schema+"/"+query]
	return ti, ok
}

func TestPropertyColumn_LookupResolution(t *testing.T) {
	pd := PropertyDescriptor{
		PropertyID: 9, RangeURI: xsdString,
		LookupContainer: "projB", LookupSchema: "lists", LookupQuery: "species",
	}
	resolver := staticResolver{
		"projB/lists/species": {Name: "species", KeyColumn: "Code", TitleColumn: "CommonName"},
	}
	col := NewPropertyColumn(pd, "o.ObjectId")

	// Caller container misses, descriptor container resolves.
	lk := col.ResolveLookup(context.Background(), resolver, "projA")
	if lk == nil || lk.Container != "projB" {
		t.Fatalf("lookup = %+v, want projB hit", lk)
	}
	title := col.TitleSQL(context.Background(), resolver, "projA")
	if !strings.Contains(title, "t.CommonName") || !strings.Contains(title, "t.Code =") {
		t.Fatalf("title sql wrong: %s", title)
	}
}

func TestPropertyColumn_LookupDegradesToValue(t *testing.T) {
	pd := PropertyDescriptor{PropertyID: 9, RangeURI: xsdString, LookupSchema: "lists", LookupQuery: "ghost"}
	col := NewPropertyColumn(pd, "o.ObjectId")
	if lk := col.ResolveLookup(context.Background(), staticResolver{}, "projA"); lk != nil {
		t.Fatalf("unresolvable lookup must degrade, got %+v", lk)
	}
	if got := col.TitleSQL(context.Background(), staticResolver{}, "projA"); got != col.ValueSQL() {
		t.Fatalf("title must fall back to the raw value: %s", got)
	}
}

func TestPropertyColumns_DomainOrder(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	dd := mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:cols", Container: "projA"})
	second := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:second", RangeURI: xsdString, Container: "projA"})
	first := mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:first", RangeURI: xsdString, Container: "projA"})
	if err := m.EnsurePropertyDomain(ctx, second, dd, false, 1); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := m.EnsurePropertyDomain(ctx, first, dd, false, 0); err != nil {
		t.Fatalf("join: %v", err)
	}
	cols, err := m.PropertyColumns(ctx, dd.DomainURI, "projA", "o.ObjectId")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if len(cols) != 2 || cols[0].Name() != "first" || cols[1].Name() != "second" {
		got := make([]string, len(cols))
		for i, c := range cols {
			got[i] = c.Name()
		}
		t.Fatalf("order = %v, want [first second]", got)
	}
}
