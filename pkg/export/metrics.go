package export

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wiki_export_pages_total",
			Help: "Pages written to the export by status (exported, missing)",
		},
		[]string{"status"},
	)

	exportBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wiki_export_bytes_total",
			Help: "Total bytes of export XML written",
		},
	)
)
