package cache

import "time"

// Entry represents a cached API response.
type Entry struct {
	// Body is the raw JSON response body
	Body []byte `json:"body"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry builds an entry for a response body received now.
func NewEntry(body []byte, statusCode int) *Entry {
	return &Entry{
		Body:       body,
		StatusCode: statusCode,
		CachedAt:   time.Now(),
	}
}

// Age returns how long ago the entry was cached.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
