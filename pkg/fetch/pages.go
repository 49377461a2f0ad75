// Package fetch retrieves page revisions and uploaded file binaries for
// scheduled batches. Fetchers implement batch.Fetcher and hand their
// results to sinks; the scheduler only sees success or failure.
package fetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/wiki-export/pkg/api"
	"github.com/Sternrassler/wiki-export/pkg/batch"
	"github.com/Sternrassler/wiki-export/pkg/wiki"
)

// apiMaxTitles is the most titles api.php accepts per request for
// non-privileged clients.
const apiMaxTitles = 50

// Pages fetches page revisions for batches of titles and delivers one
// PageRecord per title to its sink.
type Pages struct {
	client  *api.Client
	sink    PageSink
	history bool
	logger  zerolog.Logger
}

// NewPages creates a page fetcher. With history enabled every revision of
// each page is fetched oldest first; otherwise only the latest one.
func NewPages(client *api.Client, sink PageSink, history bool) *Pages {
	return &Pages{
		client:  client,
		sink:    sink,
		history: history,
		logger:  log.With().Str("component", "page-fetcher").Logger(),
	}
}

// FetchBatch implements batch.Fetcher. Unknown titles become tombstone
// records; only a failure of the whole batch returns an error.
func (p *Pages) FetchBatch(ctx context.Context, b batch.Batch) error {
	var (
		records []PageRecord
		err     error
	)
	if p.history {
		records, err = p.fetchWithHistory(ctx, b)
	} else {
		records, err = p.fetchLatest(ctx, b)
	}
	if err != nil {
		return &BatchError{Kind: string(b.Kind), Index: b.Index, Namespace: b.Namespace, Err: err}
	}

	if err := p.sink.WritePages(b.Index, records); err != nil {
		return &BatchError{Kind: string(b.Kind), Index: b.Index, Namespace: b.Namespace, Err: err}
	}
	return nil
}

// fetchLatest resolves a batch with multi-title queries, 50 titles at a
// time. Without rvlimit the API returns the latest revision of each page.
func (p *Pages) fetchLatest(ctx context.Context, b batch.Batch) ([]PageRecord, error) {
	byTitle := make(map[string]*api.PageInfo)
	canonical := make(map[string]string)

	for start := 0; start < len(b.Titles); start += apiMaxTitles {
		end := start + apiMaxTitles
		if end > len(b.Titles) {
			end = len(b.Titles)
		}
		if err := p.queryChunk(ctx, b.Titles[start:end], byTitle, canonical); err != nil {
			return nil, err
		}
	}

	records := make([]PageRecord, 0, len(b.Titles))
	for _, title := range b.Titles {
		records = append(records, buildRecord(title, byTitle, canonical))
	}
	return records, nil
}

// queryChunk fetches revisions for up to apiMaxTitles titles, following
// continuation until every page in the chunk is complete. Results are
// merged into byTitle keyed by the server-side title.
func (p *Pages) queryChunk(ctx context.Context, chunk []wiki.Title, byTitle map[string]*api.PageInfo, canonical map[string]string) error {
	names := make([]string, len(chunk))
	for i, t := range chunk {
		names[i] = t.Name
	}

	var cont api.Continuation
	for !cont.Exhausted() {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("prop", "revisions")
		params.Set("rvprop", "ids|timestamp|user|comment|content")
		params.Set("rvslots", "main")
		params.Set("titles", strings.Join(names, "|"))
		cont.Apply(params)

		rsp, err := p.client.Query(ctx, params)
		if err != nil {
			return err
		}

		mergePages(rsp, byTitle, canonical)

		if !cont.Advance(rsp.ContinueValues()) {
			p.logger.Warn().Msg("Continuation did not advance, ending chunk")
		}
	}
	return nil
}

// fetchWithHistory resolves each title of the batch on its own, since
// rvlimit above one is only allowed for single-title queries.
func (p *Pages) fetchWithHistory(ctx context.Context, b batch.Batch) ([]PageRecord, error) {
	records := make([]PageRecord, 0, len(b.Titles))
	for _, title := range b.Titles {
		record, err := p.fetchTitleHistory(ctx, title)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// fetchTitleHistory fetches the full revision history of one page, oldest
// revision first, following rvcontinue across requests.
func (p *Pages) fetchTitleHistory(ctx context.Context, title wiki.Title) (PageRecord, error) {
	byTitle := make(map[string]*api.PageInfo)
	canonical := make(map[string]string)

	var cont api.Continuation
	for !cont.Exhausted() {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("prop", "revisions")
		params.Set("rvprop", "ids|timestamp|user|comment|content")
		params.Set("rvslots", "main")
		params.Set("rvlimit", "max")
		params.Set("rvdir", "newer")
		params.Set("titles", title.Name)
		cont.Apply(params)

		rsp, err := p.client.Query(ctx, params)
		if err != nil {
			return PageRecord{}, err
		}

		mergePages(rsp, byTitle, canonical)

		if !cont.Advance(rsp.ContinueValues()) {
			p.logger.Warn().Str("title", title.Name).Msg("Continuation did not advance, ending history")
		}
	}

	return buildRecord(title, byTitle, canonical), nil
}

// mergePages folds one response into the accumulated page map. Pages
// reappear across continuation rounds with further revisions attached.
func mergePages(rsp *api.Response, byTitle map[string]*api.PageInfo, canonical map[string]string) {
	for _, n := range rsp.Query.Normalized {
		canonical[n.From] = n.To
	}
	for i := range rsp.Query.Pages {
		page := rsp.Query.Pages[i]
		if existing, ok := byTitle[page.Title]; ok {
			existing.Revisions = append(existing.Revisions, page.Revisions...)
			continue
		}
		byTitle[page.Title] = &page
	}
}

// buildRecord assembles the record for one requested title. Titles the
// wiki normalized are resolved through the canonical map first.
func buildRecord(title wiki.Title, byTitle map[string]*api.PageInfo, canonical map[string]string) PageRecord {
	record := PageRecord{Title: title.Name, Namespace: title.Namespace, PageID: title.PageID}

	name := title.Name
	if to, ok := canonical[name]; ok {
		name = to
	}

	page, ok := byTitle[name]
	if !ok || page.Missing || page.Invalid || len(page.Revisions) == 0 {
		record.Missing = true
		return record
	}

	record.Title = page.Title
	record.Namespace = page.Ns
	record.PageID = page.PageID
	record.Revisions = make([]Revision, 0, len(page.Revisions))
	for _, rev := range page.Revisions {
		slot := rev.Slots["main"]
		record.Revisions = append(record.Revisions, Revision{
			ID:        rev.RevID,
			ParentID:  rev.ParentID,
			Timestamp: rev.Timestamp,
			User:      rev.User,
			Comment:   rev.Comment,
			Model:     slot.ContentModel,
			Format:    slot.ContentFormat,
			Text:      rev.Content(),
		})
	}
	return record
}
