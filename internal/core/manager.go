// Package core implements the ontology storage engine: container-scoped
// property and domain descriptors with ensure semantics, the vertical
// object-property value store with caching and bulk import, descriptor
// migration across project moves, and the property-to-column SQL projection.
package core

import (
	"ontocore/internal/attach"
	"ontocore/internal/infra/persistence"
	"ontocore/pkg/ontology"

	"github.com/prometheus/client_golang/prometheus"
)

// Manager is the ontology store service. All state is per-instance: the
// database seam, the container provider, and the cache service are injected
// at construction so tests get full isolation.
type Manager struct {
	db          *persistence.Database
	containers  ContainerProvider
	caches      *Caches
	validators  ontology.ValidatorProvider
	search      SearchSink
	attachments attach.Store
	metrics     *Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithValidators installs the validator provider consulted during inserts.
func WithValidators(p ontology.ValidatorProvider) Option {
	return func(m *Manager) { m.validators = p }
}

// WithSearchSink installs the optional best-effort metadata index sink.
func WithSearchSink(s SearchSink) Option {
	return func(m *Manager) { m.search = s }
}

// WithAttachmentStore installs the blob store backing attachment and
// file-link property content.
func WithAttachmentStore(s attach.Store) Option {
	return func(m *Manager) { m.attachments = s }
}

// WithMetricsRegistry registers the manager's collectors on reg instead of a
// private registry.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(m *Manager) { m.metrics = NewMetrics(reg) }
}

// WithCacheSizes overrides the LRU capacities.
func WithCacheSizes(objectSize, descriptorSize int) Option {
	return func(m *Manager) {
		m.caches = NewCaches(objectSize, descriptorSize, m.metrics)
	}
}

// NewManager constructs the store service on the given database and
// container provider.
func NewManager(db *persistence.Database, containers ContainerProvider, opts ...Option) *Manager {
	m := &Manager{
		db:         db,
		containers: containers,
		validators: ontology.NoValidators{},
		metrics:    NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.caches == nil {
		m.caches = NewCaches(0, 0, m.metrics)
	}
	return m
}

// DB exposes the database seam for callers that supply their own transaction
// scope around bulk operations.
func (m *Manager) DB() *persistence.Database { return m.db }

// Caches exposes the cache service, mainly so tests can clear or inspect it.
func (m *Manager) Caches() *Caches { return m.caches }

// Metrics returns the manager's collector set.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// project resolves the project scope for a container id; falls back to the
// container itself when the provider cannot resolve it.
func (m *Manager) project(containerID string) string {
	if p, ok := m.containers.Project(containerID); ok {
		return p.ID
	}
	return containerID
}

func (m *Manager) sharedProject() string { return m.containers.Shared().ID }
