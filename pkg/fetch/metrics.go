package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wiki_files_total",
			Help: "File fetch outcomes by status (saved, missing, skipped)",
		},
		[]string{"status"},
	)

	fileBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wiki_file_bytes_total",
			Help: "Total bytes of file content downloaded and stored",
		},
	)
)
