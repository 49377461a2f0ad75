// Package api provides the core MediaWiki Action API client with retry,
// caching, and error handling.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/wiki-export/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout applies per HTTP request.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies the exporter to the remote wiki.
	DefaultUserAgent = "wiki-export/1.0"
)

// Client is the Action API client. All requests go through one endpoint
// (the wiki's api.php script) and differ only in their parameters.
type Client struct {
	httpClient *http.Client
	endpoint   string
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the absolute URL of the wiki's api.php script.
	Endpoint string

	// User-Agent header sent with every request. Public wikis reject
	// clients without one.
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry controls backoff for retriable failures.
	Retry RetryConfig

	// Redis enables response caching when set. A nil client disables
	// caching entirely.
	Redis *redis.Client

	// CacheTTL is the fallback lifetime for cached responses when the
	// server sends no caching headers. Zero means cache.DefaultTTL.
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration for the given endpoint.
func DefaultConfig(endpoint, userAgent string) Config {
	return Config{
		Endpoint:  endpoint,
		UserAgent: userAgent,
		Timeout:   DefaultTimeout,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("endpoint must be an absolute URL (got %q)", cfg.Endpoint)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	// Initialize logger
	logger := log.With().Str("component", "wiki-api").Logger()

	// Response cache is optional
	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: cfg.Endpoint,
		cache:    cacheManager,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Endpoint returns the api.php URL this client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query performs one Action API request and decodes the response.
// Errors reported inside a 200 body (the MediaWiki error object) are
// classified and retried the same way as HTTP-level failures.
func (c *Client) Query(ctx context.Context, params url.Values) (*Response, error) {
	merged := mergeParams(params)
	label := queryLabel(merged)

	// Start request timing
	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	key := cache.Key{Endpoint: c.endpoint, Params: merged}
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, key); err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("action", label).Msg("Cache get error")
		} else if entry != nil {
			var cached Response
			if err := json.Unmarshal(entry.Body, &cached); err != nil {
				c.logger.Warn().Err(err).Str("action", label).Msg("Discarding undecodable cache entry")
			} else {
				c.logger.Debug().Str("action", label).Msg("Serving response from cache")
				return &cached, nil
			}
		}
	}

	// Step 2: Execute with Retry Logic
	var rsp *Response
	var body []byte
	var header http.Header

	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		var err error
		rsp, body, header, err = c.doQuery(ctx, merged, label)
		return err
	}, classifyForRetry)

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 3: Update Cache on success
	if c.cache != nil {
		entry := cache.NewEntry(body, http.StatusOK)
		ttl := cache.TTLFromHeaders(header, c.config.CacheTTL)
		if err := c.cache.Set(ctx, key, entry, ttl); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return rsp, nil
}

// doQuery performs a single POST to api.php and decodes the body.
func (c *Client) doQuery(ctx context.Context, params url.Values, label string) (*Response, []byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("action", label).Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues(label, "network_error").Inc()
		return nil, nil, nil, &Error{
			ErrorClass: ErrorClassNetwork,
			Info:       "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues(label, "network_error").Inc()
		return nil, nil, nil, &Error{
			ErrorClass: ErrorClassNetwork,
			Info:       "read response body",
			Err:        err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		class := classifyStatus(resp.StatusCode)
		apiErrorsTotal.WithLabelValues(string(class)).Inc()
		apiRequestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

		c.logger.Warn().
			Str("action", label).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("API request error")

		return nil, nil, nil, &Error{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Info:       resp.Status,
			RetryAfter: parseRetryAfter(resp.Header),
		}
	}

	var rsp Response
	if err := json.Unmarshal(body, &rsp); err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassServer)).Inc()
		apiRequestsTotal.WithLabelValues(label, "decode_error").Inc()
		return nil, nil, nil, &Error{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Info:       "decode response body",
			Err:        err,
		}
	}

	// MediaWiki reports most failures inside a 200 body.
	if rsp.Error != nil {
		class := classifyCode(rsp.Error.Code)
		apiErrorsTotal.WithLabelValues(string(class)).Inc()
		apiRequestsTotal.WithLabelValues(label, "api_error").Inc()

		c.logger.Warn().
			Str("action", label).
			Str("code", rsp.Error.Code).
			Str("error_class", string(class)).
			Msg("API returned error object")

		return nil, nil, nil, &Error{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Code:       rsp.Error.Code,
			Info:       rsp.Error.Info,
			RetryAfter: parseRetryAfter(resp.Header),
		}
	}

	if len(rsp.Warnings) > 0 {
		c.logger.Debug().
			Str("action", label).
			RawJSON("warnings", rsp.Warnings).
			Msg("API returned warnings")
	}

	apiRequestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()
	return &rsp, body, resp.Header, nil
}

// Fetch downloads a raw resource such as an uploaded file. Downloads are
// never cached; they can be arbitrarily large.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues("fetch").Observe(time.Since(startTime).Seconds())
	}()

	var body []byte
	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues("fetch", "network_error").Inc()
			return &Error{
				ErrorClass: ErrorClassNetwork,
				Info:       "download failed",
				Err:        err,
			}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			class := classifyStatus(resp.StatusCode)
			apiErrorsTotal.WithLabelValues(string(class)).Inc()
			apiRequestsTotal.WithLabelValues("fetch", strconv.Itoa(resp.StatusCode)).Inc()
			return &Error{
				StatusCode: resp.StatusCode,
				ErrorClass: class,
				Info:       resp.Status,
				RetryAfter: parseRetryAfter(resp.Header),
			}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues("fetch", "network_error").Inc()
			return &Error{
				ErrorClass: ErrorClassNetwork,
				Info:       "read download body",
				Err:        err,
			}
		}

		apiRequestsTotal.WithLabelValues("fetch", strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, classifyForRetry)

	if retryErr != nil {
		return nil, retryErr
	}
	return body, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// mergeParams copies the caller's parameters and forces the output format.
func mergeParams(params url.Values) url.Values {
	merged := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	merged.Set("format", "json")
	merged.Set("formatversion", "2")
	return merged
}

// queryLabel derives a bounded metrics label from the request parameters.
func queryLabel(params url.Values) string {
	action := params.Get("action")
	if action == "" {
		action = "query"
	}
	for _, k := range []string{"list", "prop", "meta"} {
		if v := params.Get(k); v != "" {
			return action + ":" + v
		}
	}
	return action
}

// classifyForRetry extracts the error class for the retry loop.
func classifyForRetry(err error) ErrorClass {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ErrorClassNetwork
}

// parseRetryAfter reads a Retry-After header as either seconds or a date.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
