package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for batch scheduling.
var (
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wiki_batches_total",
		Help: "Completed batches by kind and outcome",
	}, []string{"kind", "status"})

	batchesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wiki_batches_in_flight",
		Help: "Batches currently being fetched",
	})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wiki_batch_duration_seconds",
		Help:    "Batch fetch duration in seconds by kind",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"kind"})
)
