package export

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/wiki-export/internal/testutil"
	"github.com/Sternrassler/wiki-export/pkg/api"
)

func fastOptions(wikiURL string) Options {
	return Options{
		WikiURL:   wikiURL,
		UserAgent: "wiki-export-test/1.0",
		Retry: api.RetryConfig{
			MaxAttempts:       2,
			InitialBackoff:    5 * time.Millisecond,
			MaxBackoff:        20 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	}
}

func runExport(t *testing.T, opts Options) (*Summary, []byte) {
	t.Helper()

	var buf bytes.Buffer
	exporter, err := New(opts, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	summary, err := exporter.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return summary, buf.Bytes()
}

func TestExporter_Run(t *testing.T) {
	mock := testutil.NewMockWiki()
	defer mock.Close()
	mock.AddPage(0, "Apple", "apple v1", "apple v2")
	mock.AddPage(0, "Banana", "banana text")
	mock.AddPage(1, "Talk:Apple", "talk text")
	mock.AddFile("File:Logo.png", []byte("logo bytes"), "image/png")

	saveDir := filepath.Join(t.TempDir(), "files")
	opts := fastOptions(mock.PageURL())
	opts.SaveDir = saveDir
	opts.Limit = 2
	opts.BatchSize = 2

	summary, out := runExport(t, opts)

	if summary.Failed() {
		t.Fatalf("summary reports failure: %+v", summary)
	}
	if summary.Pages != 4 {
		t.Errorf("Pages = %d, want 4", summary.Pages)
	}
	if summary.MissingPages != 0 {
		t.Errorf("MissingPages = %d, want 0", summary.MissingPages)
	}
	if summary.FilesSaved != 1 || summary.FileBytes != 10 {
		t.Errorf("files = %d saved, %d bytes, want 1 and 10", summary.FilesSaved, summary.FileBytes)
	}

	doc := decodeExport(t, out)
	if doc.Siteinfo.Sitename != "Mock Wiki" {
		t.Errorf("sitename = %q, want Mock Wiki", doc.Siteinfo.Sitename)
	}

	wantOrder := []string{"Apple", "Banana", "Talk:Apple", "File:Logo.png"}
	if len(doc.Pages) != len(wantOrder) {
		t.Fatalf("pages = %d, want %d", len(doc.Pages), len(wantOrder))
	}
	for i, want := range wantOrder {
		if doc.Pages[i].Title != want {
			t.Errorf("page %d = %q, want %q", i, doc.Pages[i].Title, want)
		}
	}

	// History off exports exactly the latest revision.
	apple := doc.Pages[0]
	if len(apple.Revisions) != 1 {
		t.Fatalf("Apple revisions = %d, want 1", len(apple.Revisions))
	}
	if apple.Revisions[0].Text != "apple v2" {
		t.Errorf("Apple text = %q, want apple v2", apple.Revisions[0].Text)
	}

	data, err := os.ReadFile(filepath.Join(saveDir, "Logo.png"))
	if err != nil {
		t.Fatalf("reading saved file failed: %v", err)
	}
	if string(data) != "logo bytes" {
		t.Errorf("saved file = %q, want logo bytes", data)
	}
}

func TestExporter_History(t *testing.T) {
	mock := testutil.NewMockWiki()
	defer mock.Close()
	mock.AddPage(0, "Apple", "v1", "v2", "v3")

	opts := fastOptions(mock.APIURL())
	opts.History = true

	summary, out := runExport(t, opts)
	if summary.Pages != 1 {
		t.Fatalf("Pages = %d, want 1", summary.Pages)
	}

	doc := decodeExport(t, out)
	revisions := doc.Pages[0].Revisions
	if len(revisions) != 3 {
		t.Fatalf("revisions = %d, want full history of 3", len(revisions))
	}
	for i := 1; i < len(revisions); i++ {
		if revisions[i].ID <= revisions[i-1].ID {
			t.Errorf("revision ids not ascending: %d after %d", revisions[i].ID, revisions[i-1].ID)
		}
	}
	if revisions[0].Text != "v1" || revisions[2].Text != "v3" {
		t.Errorf("history order = %q..%q, want v1..v3", revisions[0].Text, revisions[2].Text)
	}
}

func TestExporter_OrderWithSmallBatches(t *testing.T) {
	mock := testutil.NewMockWiki()
	defer mock.Close()
	mock.AddPage(0, "Apple", "a")
	mock.AddPage(0, "Banana", "b")
	mock.AddPage(0, "Cherry", "c")
	mock.AddPage(1, "Talk:X", "x")

	opts := fastOptions(mock.APIURL())
	opts.BatchSize = 2
	opts.Limit = 2

	summary, out := runExport(t, opts)
	if summary.Pages != 4 {
		t.Fatalf("Pages = %d, want 4", summary.Pages)
	}

	doc := decodeExport(t, out)
	wantOrder := []string{"Apple", "Banana", "Cherry", "Talk:X"}
	for i, want := range wantOrder {
		if doc.Pages[i].Title != want {
			t.Errorf("page %d = %q, want %q", i, doc.Pages[i].Title, want)
		}
	}
}

func TestExporter_FailedBatchBecomesTombstones(t *testing.T) {
	mock := testutil.NewMockWiki()
	defer mock.Close()
	mock.AddPage(0, "Apple", "a")
	mock.AddPage(0, "Banana", "b")
	mock.AddPage(1, "Talk:Apple", "talk")
	mock.FailNext("revisions:Apple|Banana", 10)

	opts := fastOptions(mock.APIURL())

	summary, out := runExport(t, opts)
	if !summary.Failed() {
		t.Error("summary should report failure")
	}
	if summary.FailedBatches != 1 {
		t.Errorf("FailedBatches = %d, want 1", summary.FailedBatches)
	}
	if summary.Pages != 1 || summary.MissingPages != 2 {
		t.Errorf("pages = %d exported, %d missing, want 1 and 2", summary.Pages, summary.MissingPages)
	}

	doc := decodeExport(t, out)
	if len(doc.Pages) != 3 {
		t.Fatalf("pages = %d, want 3 (two tombstones plus the talk page)", len(doc.Pages))
	}
	if len(doc.Pages[0].Revisions) != 0 || len(doc.Pages[1].Revisions) != 0 {
		t.Error("failed batch titles should be tombstones without revisions")
	}
	if doc.Pages[2].Title != "Talk:Apple" || len(doc.Pages[2].Revisions) != 1 {
		t.Errorf("other namespaces should export fully, got %q with %d revisions",
			doc.Pages[2].Title, len(doc.Pages[2].Revisions))
	}
}

func TestExporter_EnumerationFailureAbandonsNamespace(t *testing.T) {
	mock := testutil.NewMockWiki()
	defer mock.Close()
	mock.AddPage(0, "Apple", "a")
	mock.AddPage(1, "Talk:Apple", "talk")
	mock.FailNext("allpages:1", 10)

	opts := fastOptions(mock.APIURL())

	summary, out := runExport(t, opts)
	if !summary.Failed() {
		t.Error("summary should report failure")
	}
	if len(summary.FailedNamespaces) != 1 || summary.FailedNamespaces[0] != 1 {
		t.Errorf("FailedNamespaces = %v, want [1]", summary.FailedNamespaces)
	}

	doc := decodeExport(t, out)
	if len(doc.Pages) != 1 || doc.Pages[0].Title != "Apple" {
		t.Errorf("main namespace should still export, got %+v", doc.Pages)
	}
}

func TestExporter_FileDownloadFailure(t *testing.T) {
	mock := testutil.NewMockWiki()
	defer mock.Close()
	mock.AddFile("File:Logo.png", []byte("logo"), "image/png")
	mock.FailNext("download:Logo.png", 10)

	opts := fastOptions(mock.APIURL())
	opts.SaveDir = filepath.Join(t.TempDir(), "files")

	summary, _ := runExport(t, opts)

	// A lost download is recorded, not a failure.
	if summary.Failed() {
		t.Errorf("summary should not report failure: %+v", summary)
	}
	if summary.FilesMissing != 1 || summary.FilesSaved != 0 {
		t.Errorf("files = %d missing, %d saved, want 1 and 0", summary.FilesMissing, summary.FilesSaved)
	}
}

func TestExporter_PaginatedEnumeration(t *testing.T) {
	mock := testutil.NewMockWiki()
	defer mock.Close()
	for _, title := range []string{"Apple", "Banana", "Cherry", "Damson", "Elderberry"} {
		mock.AddPage(0, title, "text of "+title)
	}
	mock.SetPageSize(2)

	opts := fastOptions(mock.APIURL())

	summary, out := runExport(t, opts)
	if summary.Pages != 5 {
		t.Fatalf("Pages = %d, want 5", summary.Pages)
	}

	doc := decodeExport(t, out)
	wantOrder := []string{"Apple", "Banana", "Cherry", "Damson", "Elderberry"}
	for i, want := range wantOrder {
		if doc.Pages[i].Title != want {
			t.Errorf("page %d = %q, want %q", i, doc.Pages[i].Title, want)
		}
	}
}

func TestExporter_InvalidOptions(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(Options{}, &buf)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
}

func TestExporter_UnreachableWiki(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var buf bytes.Buffer
	exporter, err := New(fastOptions(url+"/w/api.php"), &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := exporter.Run(context.Background()); err == nil {
		t.Error("Run against a dead server should fail")
	}
}
