package core

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// SearchDocument is the flattened metadata record handed to a SearchSink when
// a descriptor is created or updated.
type SearchDocument struct {
	// Kind is "property" or "domain".
	Kind      string
	URI       string
	Container string
	Project   string
	Name      string
	Label     string
	// Text is the concatenated searchable body.
	Text string
}

// SearchSink receives descriptor metadata for external indexing. Indexing is
// best effort: sink errors are counted and dropped, never surfaced to the
// ensure call that triggered them.
type SearchSink interface {
	Index(ctx context.Context, doc SearchDocument) error
}

// NoopSink discards every document.
type NoopSink struct{}

func (NoopSink) Index(context.Context, SearchDocument) error { return nil }

// MemorySink keeps documents in memory, latest write per (kind, URI, project)
// winning. It backs tests and the substring Search used by small deployments.
type MemorySink struct {
	mu   sync.RWMutex
	docs map[string]SearchDocument
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{docs: make(map[string]SearchDocument)}
}

func (s *MemorySink) Index(_ context.Context, doc SearchDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Kind+"\x00"+doc.URI+"\x00"+doc.Project] = doc
	return nil
}

// Search returns indexed documents whose text contains the query,
// case-insensitive, ordered by URI.
func (s *MemorySink) Search(query string) []SearchDocument {
	needle := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []SearchDocument
	for _, doc := range s.docs {
		if strings.Contains(strings.ToLower(doc.Text), needle) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

var (
	_ SearchSink = NoopSink{}
	_ SearchSink = (*MemorySink)(nil)
)

func (m *Manager) indexPropertyDescriptor(ctx context.Context, pd PropertyDescriptor) {
	if m.search == nil {
		return
	}
	doc := SearchDocument{
		Kind:      "property",
		URI:       pd.PropertyURI,
		Container: pd.Container,
		Project:   pd.Project,
		Name:      pd.Name,
		Label:     pd.Label,
		Text:      joinText(pd.PropertyURI, pd.Name, pd.Label, pd.Description, pd.ConceptURI),
	}
	if err := m.search.Index(ctx, doc); err != nil {
		m.metrics.observeSearchError()
	}
}

func (m *Manager) indexDomainDescriptor(ctx context.Context, dd DomainDescriptor) {
	if m.search == nil {
		return
	}
	doc := SearchDocument{
		Kind:      "domain",
		URI:       dd.DomainURI,
		Container: dd.Container,
		Project:   dd.Project,
		Name:      dd.Name,
		Text:      joinText(dd.DomainURI, dd.Name),
	}
	if err := m.search.Index(ctx, doc); err != nil {
		m.metrics.observeSearchError()
	}
}

func joinText(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
