package api

import "net/url"

// Continuation is the explicit pagination cursor for Action API queries.
// The API returns an opaque set of continue parameters with each partial
// response; feeding them into the next request resumes where the previous
// one stopped. A zero Continuation starts from the beginning.
type Continuation struct {
	values    map[string]string
	exhausted bool
}

// Apply adds the current continuation parameters to a query.
func (c *Continuation) Apply(params url.Values) {
	for k, v := range c.values {
		params.Set(k, v)
	}
}

// Advance moves the cursor to the next position. An empty next set means
// the listing is complete. A next set identical to the current one is a
// server that keeps pointing at the same position; the cursor treats that
// as end-of-stream and reports false so callers can log the anomaly.
func (c *Continuation) Advance(next map[string]string) bool {
	if c.exhausted {
		return false
	}
	if len(next) == 0 {
		c.exhausted = true
		return true
	}
	if sameValues(c.values, next) {
		c.exhausted = true
		return false
	}
	c.values = next
	return true
}

// Exhausted reports whether the listing is complete.
func (c *Continuation) Exhausted() bool {
	return c.exhausted
}

// Values returns the current continuation parameters. Useful when an
// enumeration fails and the caller wants to report a resume point.
func (c *Continuation) Values() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func sameValues(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return len(a) > 0
}
