package core

import (
	"context"
	"testing"
)

func TestSearchSink_IndexedOnEnsure(t *testing.T) {
	sink := NewMemorySink()
	m, _ := newTestManager(t, WithSearchSink(sink))
	mustEnsureProperty(t, m, PropertyDescriptor{
		PropertyURI: "urn:lsid:test:Prop:bodyweight", RangeURI: xsdDouble, Container: "projA",
		Label: "Body Weight", Description: "grams at intake",
	})
	mustEnsureDomain(t, m, DomainDescriptor{DomainURI: "urn:lsid:test:Domain:intake", Container: "projA"})

	hits := sink.Search("body weight")
	if len(hits) != 1 || hits[0].Kind != "property" || hits[0].URI != "urn:lsid:test:Prop:bodyweight" {
		t.Fatalf("property not indexed: %+v", hits)
	}
	hits = sink.Search("intake")
	if len(hits) != 2 {
		t.Fatalf("expected property (description) and domain hits, got %+v", hits)
	}
	if sink.Search("zebra") != nil {
		t.Fatalf("unexpected hit")
	}
}

func TestSearchSink_ReensureDoesNotDuplicate(t *testing.T) {
	sink := NewMemorySink()
	m, _ := newTestManager(t, WithSearchSink(sink))
	pd := PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:dup", RangeURI: xsdString, Container: "projA"}
	mustEnsureProperty(t, m, pd)
	mustEnsureProperty(t, m, pd)
	if hits := sink.Search("dup"); len(hits) != 1 {
		t.Fatalf("latest write must win, got %d docs", len(hits))
	}
}

// Authoritative cosmetic updates must refresh the indexed document, not leave
// the sink holding the original names and labels.
func TestSearchSink_CosmeticUpdateReindexes(t *testing.T) {
	sink := NewMemorySink()
	m, _ := newTestManager(t, WithSearchSink(sink))

	pd := PropertyDescriptor{
		PropertyURI: "urn:lsid:test:Prop:renamed", RangeURI: xsdString, Container: "projA",
		Label: "Original Label",
	}
	mustEnsureProperty(t, m, pd)
	pd.Label = "Corrected Label"
	mustEnsureProperty(t, m, pd)
	hits := sink.Search("corrected label")
	if len(hits) != 1 || hits[0].Label != "Corrected Label" {
		t.Fatalf("renamed property not reindexed: %+v", hits)
	}
	if sink.Search("original label") != nil {
		t.Fatalf("stale property document retained after rename")
	}

	dd := DomainDescriptor{DomainURI: "urn:lsid:test:Domain:renamed", Container: "projA", Name: "before"}
	mustEnsureDomain(t, m, dd)
	dd.Name = "after"
	mustEnsureDomain(t, m, dd)
	hits = sink.Search("after")
	if len(hits) != 1 || hits[0].Kind != "domain" || hits[0].Name != "after" {
		t.Fatalf("renamed domain not reindexed: %+v", hits)
	}
}

type failingSink struct{}

func (failingSink) Index(context.Context, SearchDocument) error {
	return context.DeadlineExceeded
}

func TestSearchSink_ErrorsNeverSurface(t *testing.T) {
	m, _ := newTestManager(t, WithSearchSink(failingSink{}))
	if _, err := m.EnsurePropertyDescriptor(context.Background(), PropertyDescriptor{
		PropertyURI: "urn:lsid:test:Prop:sinkfail", RangeURI: xsdString, Container: "projA",
	}); err != nil {
		t.Fatalf("sink failure leaked into ensure: %v", err)
	}
}
