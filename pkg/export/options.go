package export

import (
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/wiki-export/pkg/api"
)

const (
	// DefaultBatchSize is the number of titles per scheduled batch.
	DefaultBatchSize = 300

	// DefaultLimit is the number of batches fetched concurrently.
	DefaultLimit = 4

	// DefaultUserAgent identifies this exporter to the wiki.
	DefaultUserAgent = "wiki-export/1.0"
)

// Options configures an export run.
type Options struct {
	// WikiURL is the wiki to export, either the api.php endpoint or any
	// page URL the endpoint can be discovered from.
	WikiURL string

	// History exports the full revision history of every page instead
	// of only the latest revision.
	History bool

	// SaveDir enables file downloads into the given directory. Empty
	// means pages only.
	SaveDir string

	// Limit bounds the number of concurrently fetched batches.
	Limit int

	// BatchSize is the number of titles grouped into one batch.
	BatchSize int

	// UserAgent sent with every request.
	UserAgent string

	// Timeout per API request. Zero selects the client default.
	Timeout time.Duration

	// Retry tunes the request retry budget. Zero values select the
	// client defaults.
	Retry api.RetryConfig

	// Redis enables response caching when set.
	Redis *redis.Client

	// CacheTTL is the fallback lifetime for cached responses.
	CacheTTL time.Duration
}

// ConfigError reports an invalid option. It is returned before any
// network activity happens.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Option, e.Reason)
}

// Validate checks the options and fills unset fields with their
// defaults.
func (o *Options) Validate() error {
	if o.WikiURL == "" {
		return &ConfigError{Option: "url", Reason: "wiki URL is required"}
	}
	parsed, err := url.Parse(o.WikiURL)
	if err != nil {
		return &ConfigError{Option: "url", Reason: err.Error()}
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return &ConfigError{Option: "url", Reason: "must be an absolute URL like https://wiki.example.org/wiki/Main_Page"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ConfigError{Option: "url", Reason: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}

	if o.Limit < 0 {
		return &ConfigError{Option: "limit", Reason: "must be at least 1"}
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}

	if o.BatchSize < 0 {
		return &ConfigError{Option: "batchsize", Reason: "must be at least 1"}
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}

	if o.Timeout < 0 {
		return &ConfigError{Option: "timeout", Reason: "must not be negative"}
	}

	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return nil
}
