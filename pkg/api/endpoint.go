package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// editURIPattern matches the RSD discovery link MediaWiki embeds in every
// rendered page. Attribute order varies between skins.
var editURIPattern = regexp.MustCompile(`(?i)<link[^>]+rel="EditURI"[^>]+href="([^"]+?)\?action=rsd"`)

// maxDiscoveryBody bounds how much page HTML discovery reads.
const maxDiscoveryBody = 1 << 20

// ResolveEndpoint locates the api.php script for the wiki behind rawURL.
// An explicit api.php URL is verified and used as is. Otherwise the page
// HTML is scanned for the EditURI discovery link, then conventional
// script paths are probed. Every candidate must answer a minimal siteinfo
// query before it is accepted.
func ResolveEndpoint(ctx context.Context, rawURL, userAgent string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("wiki URL must be absolute (got %q)", rawURL)
	}

	var candidates []string
	if strings.HasSuffix(u.Path, "api.php") {
		candidates = append(candidates, u.String())
	} else {
		if href := discoverEditURI(ctx, u.String(), userAgent); href != "" {
			candidates = append(candidates, href)
		}
		origin := u.Scheme + "://" + u.Host
		base := strings.TrimSuffix(u.String(), "/")
		candidates = append(candidates,
			origin+"/w/api.php",
			origin+"/api.php",
			base+"/api.php",
		)
	}

	seen := make(map[string]bool)
	for _, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true

		if probeEndpoint(ctx, candidate, userAgent) {
			log.Debug().Str("endpoint", candidate).Msg("Resolved API endpoint")
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no working api.php endpoint found for %s", rawURL)
}

// discoverEditURI fetches the page HTML and extracts the EditURI link.
// Failures are not fatal; discovery falls back to conventional paths.
func discoverEditURI(ctx context.Context, pageURL, userAgent string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, maxDiscoveryBody))
	if err != nil {
		return ""
	}

	m := editURIPattern.FindSubmatch(html)
	if m == nil {
		return ""
	}

	// Old wikis advertise protocol-relative hrefs.
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(string(m[1]))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// probeEndpoint checks whether candidate answers a minimal siteinfo query.
func probeEndpoint(ctx context.Context, candidate, userAgent string) bool {
	client, err := New(Config{
		Endpoint:  candidate,
		UserAgent: userAgent,
		Timeout:   15 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:       1,
			InitialBackoff:    time.Second,
			MaxBackoff:        time.Second,
			BackoffMultiplier: 1,
		},
	})
	if err != nil {
		return false
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "siteinfo")
	params.Set("siprop", "general")

	rsp, err := client.Query(ctx, params)
	if err != nil {
		return false
	}
	return rsp.Query.General != nil
}
