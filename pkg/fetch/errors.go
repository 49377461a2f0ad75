package fetch

import "fmt"

// BatchError reports a batch whose fetch failed as a whole, for example
// after retry exhaustion or a sink write failure. Individual missing
// titles never produce one; they become tombstone records instead.
type BatchError struct {
	Kind      string
	Index     int
	Namespace int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("fetching %s batch %d (namespace %d): %v", e.Kind, e.Index, e.Namespace, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
