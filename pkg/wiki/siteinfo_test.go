package wiki

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchSiteInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.Form.Get("siprop"); got != "general|namespaces|statistics" {
			t.Errorf("siprop = %q, want general|namespaces|statistics", got)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"batchcomplete": true,
			"query": {
				"general": {
					"sitename": "TestWiki",
					"base": "http://wiki.example.org/wiki/Main_Page",
					"generator": "MediaWiki 1.40.0",
					"case": "first-letter",
					"lang": "en"
				},
				"namespaces": {
					"-2": {"id": -2, "case": "first-letter", "name": "Media"},
					"-1": {"id": -1, "case": "first-letter", "name": "Special"},
					"0": {"id": 0, "case": "first-letter", "name": ""},
					"1": {"id": 1, "case": "first-letter", "name": "Talk", "canonical": "Talk"},
					"6": {"id": 6, "case": "first-letter", "name": "File", "canonical": "File"},
					"4": {"id": 4, "case": "first-letter", "name": "Project", "canonical": "Project"}
				},
				"statistics": {
					"pages": 120,
					"articles": 40,
					"edits": 900,
					"images": 7,
					"users": 12
				}
			}
		}`)
	}))
	defer server.Close()

	site, err := FetchSiteInfo(context.Background(), testClient(t, server.URL+"/w/api.php"))
	if err != nil {
		t.Fatalf("FetchSiteInfo failed: %v", err)
	}

	if site.Name != "TestWiki" {
		t.Errorf("Name = %q, want TestWiki", site.Name)
	}
	if site.Generator != "MediaWiki 1.40.0" {
		t.Errorf("Generator = %q, want MediaWiki 1.40.0", site.Generator)
	}
	if site.Case != "first-letter" {
		t.Errorf("Case = %q, want first-letter", site.Case)
	}
	if site.Statistics.Pages != 120 {
		t.Errorf("Statistics.Pages = %d, want 120", site.Statistics.Pages)
	}
	if site.Statistics.Images != 7 {
		t.Errorf("Statistics.Images = %d, want 7", site.Statistics.Images)
	}

	// Virtual namespaces are dropped, the rest sorted by ID
	wantIDs := []int{0, 1, 4, 6}
	if len(site.Namespaces) != len(wantIDs) {
		t.Fatalf("Namespaces = %d entries, want %d", len(site.Namespaces), len(wantIDs))
	}
	for i, id := range wantIDs {
		if site.Namespaces[i].ID != id {
			t.Errorf("Namespaces[%d].ID = %d, want %d", i, site.Namespaces[i].ID, id)
		}
	}
	if site.Namespaces[3].Name != "File" {
		t.Errorf("Namespaces[3].Name = %q, want File", site.Namespaces[3].Name)
	}
}

func TestFetchSiteInfo_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchSiteInfo(context.Background(), testClient(t, server.URL+"/w/api.php"))
	if err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestFetchSiteInfo_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"batchcomplete": true, "query": {}}`)
	}))
	defer server.Close()

	_, err := FetchSiteInfo(context.Background(), testClient(t, server.URL+"/w/api.php"))
	if err == nil {
		t.Error("Expected error for response without general section, got nil")
	}
}
