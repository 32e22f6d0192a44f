package core

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Default cache capacities. The caches trade staleness for read amplification:
// entries are invalidated explicitly after the underlying store mutation
// commits, never by TTL.
const (
	defaultObjectCacheSize     = 10000
	defaultDescriptorCacheSize = 4096
)

// Caches is the injectable cache service for the ontology store. It replaces
// process-global maps with an explicitly constructed lifecycle: create at
// store startup, Clear between tests, drop at shutdown.
//
// Consistency model: last-writer-wins with explicit invalidation after
// commit. A reader racing a writer may observe stale entries until the
// writer's eviction lands; callers must not rely on read-your-write across
// goroutines without an intervening eviction.
// cachedProps pairs a property map with the container it was resolved
// against. Object URIs are globally unique but reads are container-scoped, so
// a hit only counts when the containers match; otherwise a wrong-container
// read (which resolves to an empty map) would shadow the object's real data.
type cachedProps struct {
	container string
	props     map[string]ObjectProperty
}

type Caches struct {
	props             *lru.Cache[string, cachedProps]
	objectIDs         *lru.Cache[string, int64]
	propDescriptors   *lru.Cache[DescriptorKey, PropertyDescriptor]
	domainDescriptors *lru.Cache[DescriptorKey, DomainDescriptor]
	domainProperties  *lru.Cache[DescriptorKey, []DomainPropertyView]

	metrics *Metrics
}

// NewCaches builds the cache service. Sizes <= 0 fall back to defaults.
func NewCaches(objectSize, descriptorSize int, metrics *Metrics) *Caches {
	if objectSize <= 0 {
		objectSize = defaultObjectCacheSize
	}
	if descriptorSize <= 0 {
		descriptorSize = defaultDescriptorCacheSize
	}
	// lru.New only errors on non-positive size, which is excluded above.
	props, _ := lru.New[string, cachedProps](objectSize)
	ids, _ := lru.New[string, int64](objectSize)
	pds, _ := lru.New[DescriptorKey, PropertyDescriptor](descriptorSize)
	dds, _ := lru.New[DescriptorKey, DomainDescriptor](descriptorSize)
	dps, _ := lru.New[DescriptorKey, []DomainPropertyView](descriptorSize)
	return &Caches{
		props:             props,
		objectIDs:         ids,
		propDescriptors:   pds,
		domainDescriptors: dds,
		domainProperties:  dps,
		metrics:           metrics,
	}
}

func (c *Caches) observe(cache string, hit bool) {
	if c.metrics != nil {
		c.metrics.observeCache(cache, hit)
	}
}

func (c *Caches) getProps(uri, container string) (map[string]ObjectProperty, bool) {
	entry, ok := c.props.Get(uri)
	ok = ok && entry.container == container
	c.observe("props", ok)
	if !ok {
		return nil, false
	}
	return entry.props, true
}

func (c *Caches) putProps(uri, container string, m map[string]ObjectProperty) {
	c.props.Add(uri, cachedProps{container: container, props: m})
}

func (c *Caches) getObjectID(uri string) (int64, bool) {
	id, ok := c.objectIDs.Get(uri)
	c.observe("object_id", ok)
	return id, ok
}

func (c *Caches) putObjectID(uri string, id int64) { c.objectIDs.Add(uri, id) }

func (c *Caches) getPropertyDescriptor(key DescriptorKey) (PropertyDescriptor, bool) {
	pd, ok := c.propDescriptors.Get(key)
	c.observe("property_descriptor", ok)
	return pd, ok
}

func (c *Caches) putPropertyDescriptor(pd PropertyDescriptor) {
	c.propDescriptors.Add(pd.Key(), pd)
}

func (c *Caches) getDomainDescriptor(key DescriptorKey) (DomainDescriptor, bool) {
	dd, ok := c.domainDescriptors.Get(key)
	c.observe("domain_descriptor", ok)
	return dd, ok
}

func (c *Caches) putDomainDescriptor(dd DomainDescriptor) {
	c.domainDescriptors.Add(dd.Key(), dd)
}

func (c *Caches) getDomainProperties(key DescriptorKey) ([]DomainPropertyView, bool) {
	views, ok := c.domainProperties.Get(key)
	c.observe("domain_properties", ok)
	return views, ok
}

func (c *Caches) putDomainProperties(key DescriptorKey, views []DomainPropertyView) {
	c.domainProperties.Add(key, views)
}

// EvictObject drops the property map and id for one object URI.
func (c *Caches) EvictObject(uri string) {
	c.props.Remove(uri)
	c.objectIDs.Remove(uri)
}

// EvictPropertyDescriptor drops one descriptor entry.
func (c *Caches) EvictPropertyDescriptor(key DescriptorKey) {
	c.propDescriptors.Remove(key)
}

// EvictDomain drops a domain descriptor and its property list.
func (c *Caches) EvictDomain(key DescriptorKey) {
	c.domainDescriptors.Remove(key)
	c.domainProperties.Remove(key)
}

// ClearObjects drops all object-level entries; used by bulk deletes.
func (c *Caches) ClearObjects() {
	c.props.Purge()
	c.objectIDs.Purge()
}

// ClearDescriptors drops all descriptor-level entries; used by migration.
func (c *Caches) ClearDescriptors() {
	c.propDescriptors.Purge()
	c.domainDescriptors.Purge()
	c.domainProperties.Purge()
}

// Clear empties every cache.
func (c *Caches) Clear() {
	c.ClearObjects()
	c.ClearDescriptors()
}
