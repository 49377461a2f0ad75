package integration

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/wiki-export/internal/testutil"
	"github.com/Sternrassler/wiki-export/pkg/api"
	"github.com/Sternrassler/wiki-export/pkg/cache"
	"github.com/Sternrassler/wiki-export/pkg/export"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Skipping integration test, could not start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// TestCachedExportFlow runs a full export twice against the same wiki
// with the Redis response cache enabled. The second run must be served
// from cache and produce byte-identical XML.
func TestCachedExportFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	wiki := testutil.NewMockWiki()
	defer wiki.Close()

	wiki.AddPage(0, "Alpha", "Content of Alpha.")
	wiki.AddPage(0, "Beta", "Content of Beta.")
	wiki.AddPage(1, "Talk:Alpha", "Discussion.")

	ctx := context.Background()

	runExport := func() string {
		var out bytes.Buffer
		exporter, err := export.New(export.Options{
			WikiURL:  wiki.APIURL(),
			Limit:    2,
			Redis:    redisClient,
			CacheTTL: 10 * time.Minute,
		}, &out)
		if err != nil {
			t.Fatalf("Failed to create exporter: %v", err)
		}

		summary, err := exporter.Run(ctx)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if summary.Failed() {
			t.Fatalf("Export reported failure: %+v", summary)
		}
		if summary.Pages != 3 {
			t.Errorf("Pages = %d, want 3", summary.Pages)
		}
		return out.String()
	}

	t.Log("Run 1: cold cache")
	first := runExport()
	firstRequests := wiki.RequestCount

	t.Log("Run 2: warm cache")
	second := runExport()

	// Endpoint probing bypasses the cache, so one request per run is
	// expected; everything else must be served from Redis.
	if extra := wiki.RequestCount - firstRequests; extra > 1 {
		t.Errorf("Second run made %d extra requests, want at most 1 (endpoint probe)", extra)
	}
	if first != second {
		t.Error("Cached run produced different XML output")
	}
	if !strings.Contains(first, "<title>Alpha</title>") {
		t.Error("Export output missing page Alpha")
	}
}

// TestCacheRoundTrip stores a raw API response through the cache manager
// and reads it back.
func TestCacheRoundTrip(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	manager := cache.NewManager(redisClient)
	ctx := context.Background()

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "allpages")
	key := cache.Key{Endpoint: "https://wiki.example.org/w/api.php", Params: params}

	body := []byte(`{"batchcomplete":true,"query":{"allpages":[]}}`)
	if err := manager.Set(ctx, key, cache.NewEntry(body, 200), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entry, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(entry.Body, body) {
		t.Errorf("Body = %s, want %s", entry.Body, body)
	}
	if entry.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", entry.StatusCode)
	}
}

// TestCacheExpiry verifies that expired entries come back as misses.
func TestCacheExpiry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	manager := cache.NewManager(redisClient)
	ctx := context.Background()

	key := cache.Key{Endpoint: "https://wiki.example.org/w/api.php"}
	if err := manager.Set(ctx, key, cache.NewEntry([]byte(`{}`), 200), 100*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if _, err := manager.Get(ctx, key); err != cache.ErrCacheMiss {
		t.Errorf("Get after expiry = %v, want ErrCacheMiss", err)
	}
}

// TestClientCachesQueries checks the API client transparently caches
// identical queries against Redis.
func TestClientCachesQueries(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	wiki := testutil.NewMockWiki()
	defer wiki.Close()
	wiki.AddPage(0, "Alpha", "Text.")

	client, err := api.New(api.Config{
		Endpoint:  wiki.APIURL(),
		UserAgent: "wiki-export-test/1.0",
		Redis:     redisClient,
		CacheTTL:  time.Minute,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "allpages")
	params.Set("apnamespace", "0")
	params.Set("aplimit", "max")

	rsp1, err := client.Query(ctx, params)
	if err != nil {
		t.Fatalf("Query 1 failed: %v", err)
	}
	if wiki.QueryCounts["allpages"] != 1 {
		t.Fatalf("allpages queries = %d, want 1", wiki.QueryCounts["allpages"])
	}

	rsp2, err := client.Query(ctx, params)
	if err != nil {
		t.Fatalf("Query 2 failed: %v", err)
	}
	if wiki.QueryCounts["allpages"] != 1 {
		t.Errorf("allpages queries = %d after cached query, want 1", wiki.QueryCounts["allpages"])
	}

	if len(rsp1.Query.AllPages) != len(rsp2.Query.AllPages) {
		t.Errorf("Cached response has %d listings, want %d", len(rsp2.Query.AllPages), len(rsp1.Query.AllPages))
	}
}
