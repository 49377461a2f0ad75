// Package testutil provides testing utilities for the wiki exporter.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// WikiRevision is one revision of a mock page.
type WikiRevision struct {
	ID        int64
	ParentID  int64
	User      string
	Timestamp string
	Comment   string
	Text      string
}

// WikiPage is one page served by the mock wiki. Revisions are ordered
// oldest to newest.
type WikiPage struct {
	ID        int64
	Namespace int
	Title     string
	Revisions []WikiRevision
}

// WikiFile is one uploaded file served by the mock wiki.
type WikiFile struct {
	Title string
	Data  []byte
	Mime  string
}

// MockWiki is a configurable mock MediaWiki Action API server. It
// answers api.php queries (siteinfo, allpages, revisions, imageinfo),
// serves file binaries under /images/ and publishes an EditURI link on
// every other path so endpoint discovery works against it.
type MockWiki struct {
	server *httptest.Server
	mu     sync.RWMutex

	sitename   string
	namespaces map[int]string
	pages      []WikiPage
	files      map[string]WikiFile

	pageSize    int
	revPageSize int
	failures    map[string]int

	nextPageID int64
	nextRevID  int64

	// Tracking
	RequestCount int
	QueryCounts  map[string]int
}

// NewMockWiki creates a mock wiki with the main, Talk and File
// namespaces and no pages.
func NewMockWiki() *MockWiki {
	mock := &MockWiki{
		sitename:    "Mock Wiki",
		namespaces:  map[int]string{0: "", 1: "Talk", 6: "File"},
		files:       make(map[string]WikiFile),
		failures:    make(map[string]int),
		nextPageID:  1,
		nextRevID:   100,
		QueryCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.mu.Unlock()

		switch {
		case r.URL.Path == "/w/api.php":
			mock.handleAPI(w, r)
		case strings.HasPrefix(r.URL.Path, "/images/"):
			mock.handleImage(w, r)
		default:
			mock.handleDiscovery(w, r)
		}
	}))

	return mock
}

// URL returns the mock server base URL.
func (m *MockWiki) URL() string {
	return m.server.URL
}

// PageURL returns a wiki page URL suitable as exporter input; the
// api.php endpoint has to be discovered from it.
func (m *MockWiki) PageURL() string {
	return m.server.URL + "/wiki/Main_Page"
}

// APIURL returns the api.php endpoint directly.
func (m *MockWiki) APIURL() string {
	return m.server.URL + "/w/api.php"
}

// Close shuts down the mock server.
func (m *MockWiki) Close() {
	m.server.Close()
}

// AddPage registers a page with one revision per given text, IDs and
// timestamps assigned deterministically. It returns the page ID.
func (m *MockWiki) AddPage(namespace int, title string, texts ...string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	page := WikiPage{
		ID:        m.nextPageID,
		Namespace: namespace,
		Title:     title,
	}
	m.nextPageID++

	var parent int64
	for i, text := range texts {
		rev := WikiRevision{
			ID:        m.nextRevID,
			ParentID:  parent,
			User:      "Tester",
			Timestamp: fmt.Sprintf("2024-01-%02dT00:00:00Z", i+1),
			Comment:   fmt.Sprintf("edit %d", i+1),
			Text:      text,
		}
		m.nextRevID++
		parent = rev.ID
		page.Revisions = append(page.Revisions, rev)
	}

	m.pages = append(m.pages, page)
	return page.ID
}

// AddFile registers an uploaded file plus its description page in the
// File namespace. The title must carry the namespace prefix.
func (m *MockWiki) AddFile(title string, data []byte, mime string) {
	m.AddPage(6, title, "File description.")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[title] = WikiFile{Title: title, Data: data, Mime: mime}
}

// SetPageSize makes allpages paginate with the given chunk size. Zero
// serves each listing in one response.
func (m *MockWiki) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// SetRevisionPageSize makes history queries paginate with the given
// chunk size.
func (m *MockWiki) SetRevisionPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revPageSize = n
}

// FailNext makes the next n requests matching key answer with HTTP 500.
// Keys are the query kind ("siteinfo", "allpages", "revisions",
// "imageinfo", "download"), optionally narrowed like "allpages:1" for a
// namespace or "download:Logo.png" for one file.
func (m *MockWiki) FailNext(key string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key] = n
}

// shouldFail consumes one injected failure, most specific key first.
func (m *MockWiki) shouldFail(keys ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if m.failures[key] > 0 {
			m.failures[key]--
			return true
		}
	}
	return false
}

func (m *MockWiki) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<html><head><link rel="EditURI" type="application/rsd+xml" href="%s?action=rsd"/></head><body>Mock Wiki</body></html>`, m.APIURL())
}

func (m *MockWiki) handleImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/images/")
	if m.shouldFail("download:"+name, "download") {
		http.Error(w, "mock download failure", http.StatusInternalServerError)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, file := range m.files {
		if bareName(file.Title) == name {
			w.Header().Set("Content-Type", file.Mime)
			w.Write(file.Data)
			return
		}
	}
	http.NotFound(w, r)
}

func (m *MockWiki) handleAPI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case r.Form.Get("meta") == "siteinfo":
		m.countQuery("siteinfo")
		if m.shouldFail("siteinfo") {
			http.Error(w, "mock failure", http.StatusInternalServerError)
			return
		}
		m.writeJSON(w, m.siteinfoResponse())

	case r.Form.Get("list") == "allpages":
		ns := r.Form.Get("apnamespace")
		m.countQuery("allpages")
		if m.shouldFail("allpages:"+ns, "allpages") {
			http.Error(w, "mock failure", http.StatusInternalServerError)
			return
		}
		m.writeJSON(w, m.allpagesResponse(r.Form))

	case r.Form.Get("prop") == "revisions":
		m.countQuery("revisions")
		if m.shouldFail("revisions:"+r.Form.Get("titles"), "revisions") {
			http.Error(w, "mock failure", http.StatusInternalServerError)
			return
		}
		m.writeJSON(w, m.revisionsResponse(r.Form))

	case r.Form.Get("prop") == "imageinfo":
		m.countQuery("imageinfo")
		if m.shouldFail("imageinfo") {
			http.Error(w, "mock failure", http.StatusInternalServerError)
			return
		}
		m.writeJSON(w, m.imageinfoResponse(r.Form))

	default:
		http.Error(w, "unrecognized query", http.StatusBadRequest)
	}
}

func (m *MockWiki) countQuery(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCounts[kind]++
}

func (m *MockWiki) writeJSON(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *MockWiki) siteinfoResponse() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query := map[string]any{
		"general": map[string]any{
			"sitename":  m.sitename,
			"base":      m.server.URL + "/wiki/Main_Page",
			"generator": "MediaWiki 1.41.0",
			"case":      "first-letter",
			"lang":      "en",
		},
	}

	namespaces := map[string]any{
		"-2": map[string]any{"id": -2, "case": "first-letter", "name": "Media", "canonical": "Media"},
		"-1": map[string]any{"id": -1, "case": "first-letter", "name": "Special", "canonical": "Special"},
	}
	for id, name := range m.namespaces {
		entry := map[string]any{"id": id, "case": "first-letter", "name": name}
		if name != "" {
			entry["canonical"] = name
		}
		namespaces[strconv.Itoa(id)] = entry
	}
	query["namespaces"] = namespaces

	edits := 0
	articles := 0
	for _, page := range m.pages {
		edits += len(page.Revisions)
		if page.Namespace == 0 {
			articles++
		}
	}
	query["statistics"] = map[string]any{
		"pages":    len(m.pages),
		"articles": articles,
		"edits":    edits,
		"images":   len(m.files),
		"users":    1,
	}

	return map[string]any{"batchcomplete": true, "query": query}
}

func (m *MockWiki) allpagesResponse(form url.Values) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ns, _ := strconv.Atoi(form.Get("apnamespace"))

	var listing []WikiPage
	for _, page := range m.pages {
		if page.Namespace == ns {
			listing = append(listing, page)
		}
	}

	start := 0
	if from := form.Get("apcontinue"); from != "" {
		for i, page := range listing {
			if page.Title == from {
				start = i
				break
			}
		}
	}

	end := len(listing)
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
	}

	var entries []map[string]any
	for _, page := range listing[start:end] {
		entries = append(entries, map[string]any{"pageid": page.ID, "ns": page.Namespace, "title": page.Title})
	}

	rsp := map[string]any{"query": map[string]any{"allpages": entries}}
	if end < len(listing) {
		rsp["continue"] = map[string]any{"apcontinue": listing[end].Title, "continue": "-||"}
	} else {
		rsp["batchcomplete"] = true
	}
	return rsp
}

func (m *MockWiki) revisionsResponse(form url.Values) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	titles := strings.Split(form.Get("titles"), "|")
	history := form.Get("rvlimit") == "max"

	var normalized []map[string]any
	var pages []map[string]any
	complete := true

	for _, requested := range titles {
		title := strings.ReplaceAll(requested, "_", " ")
		if title != requested {
			normalized = append(normalized, map[string]any{"from": requested, "to": title})
		}

		page, ok := m.findPage(title)
		if !ok {
			pages = append(pages, map[string]any{"title": title, "missing": true})
			continue
		}

		revisions := page.Revisions
		entry := map[string]any{"pageid": page.ID, "ns": page.Namespace, "title": page.Title}

		if history {
			start := 0
			if from := form.Get("rvcontinue"); from != "" {
				start, _ = strconv.Atoi(from)
			}
			end := len(revisions)
			if m.revPageSize > 0 && start+m.revPageSize < end {
				end = start + m.revPageSize
				complete = false
			}
			entry["revisions"] = revisionEntries(revisions[start:end])
		} else if len(revisions) > 0 {
			entry["revisions"] = revisionEntries(revisions[len(revisions)-1:])
		}

		pages = append(pages, entry)
	}

	query := map[string]any{"pages": pages}
	if len(normalized) > 0 {
		query["normalized"] = normalized
	}

	rsp := map[string]any{"query": query}
	if complete {
		rsp["batchcomplete"] = true
	} else {
		start := 0
		if from := form.Get("rvcontinue"); from != "" {
			start, _ = strconv.Atoi(from)
		}
		rsp["continue"] = map[string]any{"rvcontinue": strconv.Itoa(start + m.revPageSize), "continue": "||"}
	}
	return rsp
}

func (m *MockWiki) imageinfoResponse(form url.Values) map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	titles := strings.Split(form.Get("titles"), "|")

	var pages []map[string]any
	for _, title := range titles {
		file, ok := m.files[title]
		if !ok {
			pages = append(pages, map[string]any{"title": title, "missing": true})
			continue
		}

		page, _ := m.findPage(title)
		pages = append(pages, map[string]any{
			"pageid": page.ID,
			"ns":     6,
			"title":  title,
			"imageinfo": []map[string]any{{
				"url":  m.server.URL + "/images/" + bareName(title),
				"size": len(file.Data),
				"mime": file.Mime,
			}},
		})
	}

	return map[string]any{"batchcomplete": true, "query": map[string]any{"pages": pages}}
}

func (m *MockWiki) findPage(title string) (WikiPage, bool) {
	for _, page := range m.pages {
		if page.Title == title {
			return page, true
		}
	}
	return WikiPage{}, false
}

func revisionEntries(revisions []WikiRevision) []map[string]any {
	entries := make([]map[string]any, 0, len(revisions))
	for _, rev := range revisions {
		entries = append(entries, map[string]any{
			"revid":     rev.ID,
			"parentid":  rev.ParentID,
			"user":      rev.User,
			"timestamp": rev.Timestamp,
			"comment":   rev.Comment,
			"slots": map[string]any{
				"main": map[string]any{
					"contentmodel":  "wikitext",
					"contentformat": "text/x-wiki",
					"content":       rev.Text,
				},
			},
		})
	}
	return entries
}

func bareName(title string) string {
	if i := strings.Index(title, ":"); i >= 0 {
		return title[i+1:]
	}
	return title
}
