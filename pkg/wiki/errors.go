package wiki

import "fmt"

// EnumerationError reports a failed title listing for one namespace. It
// carries the continuation values of the last successful request so the
// caller can log a resume point. An enumeration failure aborts only the
// namespace it occurred in.
type EnumerationError struct {
	Namespace int
	Continue  map[string]string
	Err       error
}

// Error implements the error interface.
func (e *EnumerationError) Error() string {
	if len(e.Continue) > 0 {
		return fmt.Sprintf("enumerating namespace %d (resume at %v): %v",
			e.Namespace, e.Continue, e.Err)
	}
	return fmt.Sprintf("enumerating namespace %d: %v", e.Namespace, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *EnumerationError) Unwrap() error {
	return e.Err
}
