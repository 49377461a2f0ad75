// Package metrics provides the centralized Prometheus metrics registry for
// the exporter. All metrics are defined in their respective packages (api,
// cache, batch, fetch, export) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the exporter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/api):
//   - wiki_api_requests_total{action, status} (Counter): Total API requests by action and outcome
//   - wiki_api_request_duration_seconds{action} (Histogram): Request duration by action
//   - wiki_api_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/api):
//   - wiki_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - wiki_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - wiki_api_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - wiki_cache_hits_total (Counter): Response cache hits
//   - wiki_cache_misses_total (Counter): Response cache misses
//   - wiki_cache_written_bytes_total (Counter): Bytes written to the response cache
//   - wiki_cache_errors_total{operation} (Counter): Cache operation errors
//
// Scheduler Metrics (pkg/batch):
//   - wiki_batches_total{kind, status} (Counter): Completed batches by kind and outcome
//   - wiki_batches_in_flight (Gauge): Batches currently being fetched
//   - wiki_batch_duration_seconds{kind} (Histogram): Batch fetch duration by kind
//
// Fetch Metrics (pkg/fetch):
//   - wiki_files_total{status} (Counter): File fetch outcomes (saved, missing, skipped)
//   - wiki_file_bytes_total (Counter): Bytes of file content downloaded and stored
//
// Export Metrics (pkg/export):
//   - wiki_export_pages_total{status} (Counter): Pages written by outcome (exported, missing)
//   - wiki_export_bytes_total (Counter): Bytes of export XML written
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(wiki_cache_hits_total[5m])) /
//   (sum(rate(wiki_cache_hits_total[5m])) + sum(rate(wiki_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(wiki_api_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(wiki_api_request_duration_seconds_bucket[5m]))
//
//   # Batch Failure Ratio
//   sum(rate(wiki_batches_total{status="failed"}[5m])) /
//   sum(rate(wiki_batches_total[5m]))
