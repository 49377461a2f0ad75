package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback lifetime when no caching headers are present
	DefaultTTL = 5 * time.Minute
)

// TTLFromHeaders derives a cache lifetime from response headers.
// A Cache-Control max-age directive wins, then the Expires header.
// MediaWiki installations usually send max-age=0 for API responses, in
// which case the fallback governs. A zero fallback means DefaultTTL.
func TTLFromHeaders(headers http.Header, fallback time.Duration) time.Duration {
	if fallback <= 0 {
		fallback = DefaultTTL
	}
	if headers == nil {
		return fallback
	}

	if cc := headers.Get("Cache-Control"); cc != "" {
		if maxAge := parseMaxAge(cc); maxAge > 0 {
			return maxAge
		}
	}

	if expiresStr := headers.Get("Expires"); expiresStr != "" {
		if expires, err := http.ParseTime(expiresStr); err == nil {
			if ttl := time.Until(expires); ttl > 0 {
				return ttl
			}
		}
	}

	return fallback
}

// parseMaxAge extracts the max-age directive from a Cache-Control value.
// Returns 0 when the directive is absent or unusable.
func parseMaxAge(cc string) time.Duration {
	for _, directive := range strings.Split(cc, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil || secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	return 0
}
