// Package cache provides Redis-backed caching of Action API responses.
//
// An export run issues the same siteinfo, allpages, and revision queries
// every time it visits a wiki. Caching the raw response bodies lets a
// rerun against the same wiki skip most of the network round trips. The
// cache is optional; the exporter works identically without it.
//
// Features:
//
// - Deterministic cache key generation from endpoint and parameters
// - TTL derived from response headers with a configurable fallback
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Create cache key
//	key := cache.Key{
//		Endpoint: "https://wiki.example.org/w/api.php",
//		Params:   url.Values{"action": []string{"query"}},
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - query the wiki
//	}
//
//	// Store a response
//	entry = cache.NewEntry(body, http.StatusOK)
//	ttl := cache.TTLFromHeaders(resp.Header, 0)
//	if err := manager.Set(ctx, key, entry, ttl); err != nil {
//		return err
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - wiki_cache_hits_total - Cache hits
//   - wiki_cache_misses_total - Cache misses
//   - wiki_cache_written_bytes_total - Bytes written to the cache
//   - wiki_cache_errors_total{operation} - Cache operation errors
package cache
