package export

import "time"

// Summary is the outcome of one export run.
type Summary struct {
	// Pages written with revisions.
	Pages int64

	// MissingPages written as tombstones, including the titles of
	// failed page batches.
	MissingPages int64

	// File outcomes. All zero when no save directory was configured.
	FilesSaved   int64
	FilesMissing int64
	FilesSkipped int64
	FileBytes    int64

	// FailedNamespaces lists namespace IDs whose enumeration failed and
	// was abandoned.
	FailedNamespaces []int

	// FailedBatches counts batches that failed after retries.
	FailedBatches int

	Duration time.Duration
}

// Failed reports whether the export lost data and the process should
// exit nonzero.
func (s *Summary) Failed() bool {
	return s.FailedBatches > 0 || len(s.FailedNamespaces) > 0
}
