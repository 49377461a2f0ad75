package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks response cache hits
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wiki_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	// cacheMisses tracks response cache misses
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wiki_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// cacheWrittenBytes tracks bytes written to the cache
	cacheWrittenBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wiki_cache_written_bytes_total",
			Help: "Total bytes written to the response cache",
		},
	)

	// cacheErrors tracks cache operation errors
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wiki_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
