package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key represents a unique identifier for a cached API response.
type Key struct {
	// Endpoint is the api.php URL the query was sent to
	Endpoint string

	// Params are the full request parameters
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: wiki:endpoint:param1=val1:param2=val2
//
// Example:
//
//	wiki:https://wiki.example.org/w/api.php:action=query:list=allpages
func (k Key) String() string {
	parts := []string{"wiki"}

	endpoint := strings.TrimSuffix(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Add params (sorted for determinism)
	if len(k.Params) > 0 {
		keys := make([]string, 0, len(k.Params))
		for key := range k.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Params.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
