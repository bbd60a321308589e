// Package metrics defines the Prometheus metric collectors for the index
// engine and persistence layer and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the search engine. A nil
// *Metrics disables instrumentation, so unit tests can pass nil without
// touching the default registry.
type Metrics struct {
	DocsIndexedTotal   prometheus.Counter
	DocsRemovedTotal   prometheus.Counter
	IndexedDocuments   prometheus.Gauge
	IndexedTerms       prometheus.Gauge
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      prometheus.Histogram
	SearchResultsCount prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	SnapshotSavesTotal *prometheus.CounterVec
	SnapshotLoadsTotal *prometheus.CounterVec
	SnapshotSizeBytes  prometheus.Gauge
	BackupCount        prometheus.Gauge
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_docs_indexed_total",
				Help: "Total documents indexed, including re-indexed replacements.",
			},
		),
		DocsRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_docs_removed_total",
				Help: "Total documents removed from the index.",
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_indexed_documents",
				Help: "Number of documents currently in the index.",
			},
		),
		IndexedTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_indexed_terms",
				Help: "Number of unique terms currently in the index.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_cache_hits_total",
				Help: "Total query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_cache_misses_total",
				Help: "Total query cache misses.",
			},
		),
		SnapshotSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_snapshot_saves_total",
				Help: "Total snapshot save operations by status (ok, error).",
			},
			[]string{"status"},
		),
		SnapshotLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_snapshot_loads_total",
				Help: "Total snapshot load operations by source (primary, backup, empty).",
			},
			[]string{"source"},
		),
		SnapshotSizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_snapshot_size_bytes",
				Help: "Size of the last written primary snapshot in bytes.",
			},
		),
		BackupCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_backup_count",
				Help: "Number of backup snapshots currently retained.",
			},
		),
	}

	prometheus.MustRegister(
		m.DocsIndexedTotal,
		m.DocsRemovedTotal,
		m.IndexedDocuments,
		m.IndexedTerms,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.SnapshotSavesTotal,
		m.SnapshotLoadsTotal,
		m.SnapshotSizeBytes,
		m.BackupCount,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for external adapters.
func Handler() http.Handler {
	return promhttp.Handler()
}
