package core

import (
	"expvar"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var expvarSeq uint64

// Metrics publishes the store's operational counters to Prometheus and, for
// deployments that prefer process-local inspection, an expvar snapshot.
type Metrics struct {
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	batchesFlushed      prometheus.Counter
	rowsImported        prometheus.Counter
	validationFailures  prometheus.Counter
	descriptorConflicts prometheus.Counter
	searchIndexErrors   prometheus.Counter
	attachSweepErrors   prometheus.Counter

	flushes atomic.Int64
	rows    atomic.Int64
}

// NewMetrics registers the collector set on reg. A nil registerer gets a
// private registry so tests can construct managers freely.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ontocore_cache_hits_total",
			Help: "Cache hits by cache name.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ontocore_cache_misses_total",
			Help: "Cache misses by cache name.",
		}, []string{"cache"}),
		batchesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ontocore_import_batches_flushed_total",
			Help: "Multi-row insert batches flushed by the bulk importer.",
		}),
		rowsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ontocore_import_property_rows_total",
			Help: "Property rows written by the bulk importer.",
		}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ontocore_validation_failures_total",
			Help: "Field-level validation failures collected across imports.",
		}),
		descriptorConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ontocore_descriptor_conflicts_total",
			Help: "Descriptor ensure calls that observed a material conflict.",
		}),
		searchIndexErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ontocore_search_index_errors_total",
			Help: "Best-effort search sink failures (never propagated).",
		}),
		attachSweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ontocore_attachment_sweep_errors_total",
			Help: "Best-effort attachment cleanup failures after object deletes.",
		}),
	}
	reg.MustRegister(m.cacheHits, m.cacheMisses, m.batchesFlushed, m.rowsImported,
		m.validationFailures, m.descriptorConflicts, m.searchIndexErrors, m.attachSweepErrors)
	return m
}

// PublishExpvar exposes a point-in-time snapshot under the given expvar name;
// an empty name gets a generated one. Returns the name used.
func (m *Metrics) PublishExpvar(name string) string {
	if name == "" {
		name = fmt.Sprintf("ontocore_store_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	expvar.Publish(name, expvar.Func(func() any {
		return map[string]any{
			"batches_flushed": m.flushes.Load(),
			"rows_imported":   m.rows.Load(),
			"recorded_at":     time.Now().UTC(),
		}
	}))
	return name
}

func (m *Metrics) observeCache(cache string, hit bool) {
	if hit {
		m.cacheHits.WithLabelValues(cache).Inc()
	} else {
		m.cacheMisses.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) observeFlush(rows int) {
	m.batchesFlushed.Inc()
	m.rowsImported.Add(float64(rows))
	m.flushes.Add(1)
	m.rows.Add(int64(rows))
}

func (m *Metrics) observeValidationFailures(n int) {
	if n > 0 {
		m.validationFailures.Add(float64(n))
	}
}

func (m *Metrics) observeDescriptorConflict() { m.descriptorConflicts.Inc() }

func (m *Metrics) observeSearchError() { m.searchIndexErrors.Inc() }

func (m *Metrics) observeAttachSweepError() { m.attachSweepErrors.Inc() }
