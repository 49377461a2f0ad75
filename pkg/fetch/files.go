package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/wiki-export/pkg/api"
	"github.com/Sternrassler/wiki-export/pkg/batch"
	"github.com/Sternrassler/wiki-export/pkg/wiki"
)

// Files resolves file batches through prop=imageinfo, downloads each
// upload and stores it in its sink. Counters are safe for concurrent
// batches.
type Files struct {
	client *api.Client
	sink   FileSink
	logger zerolog.Logger

	saved   atomic.Int64
	missing atomic.Int64
	skipped atomic.Int64
	bytes   atomic.Int64
}

// FileStats is a snapshot of cumulative file outcomes.
type FileStats struct {
	Saved   int64
	Missing int64
	Skipped int64
	Bytes   int64
}

// NewFiles creates a file fetcher storing downloads in sink.
func NewFiles(client *api.Client, sink FileSink) *Files {
	return &Files{
		client: client,
		sink:   sink,
		logger: log.With().Str("component", "file-fetcher").Logger(),
	}
}

// Stats returns the outcomes accumulated across all batches so far.
func (f *Files) Stats() FileStats {
	return FileStats{
		Saved:   f.saved.Load(),
		Missing: f.missing.Load(),
		Skipped: f.skipped.Load(),
		Bytes:   f.bytes.Load(),
	}
}

// FetchBatch implements batch.Fetcher. Files without image info and
// failed downloads are counted and skipped; only a sink write failure or
// an unresolvable batch fails as a whole.
func (f *Files) FetchBatch(ctx context.Context, b batch.Batch) error {
	records, err := f.resolve(ctx, b)
	if err != nil {
		return &BatchError{Kind: string(b.Kind), Index: b.Index, Namespace: b.Namespace, Err: err}
	}

	for _, record := range records {
		if record.Missing {
			f.missing.Add(1)
			filesTotal.WithLabelValues("missing").Inc()
			f.logger.Warn().Str("title", record.Title).Msg("File has no image info")
			continue
		}
		// Names with a path separator would escape the target directory.
		if strings.Contains(record.Name, "/") {
			f.skipped.Add(1)
			filesTotal.WithLabelValues("skipped").Inc()
			f.logger.Warn().Str("file", record.Name).Msg("Skipping file with path separator in name")
			continue
		}

		data, err := f.client.Fetch(ctx, record.URL)
		if err != nil {
			f.missing.Add(1)
			filesTotal.WithLabelValues("missing").Inc()
			f.logger.Warn().Err(err).Str("file", record.Name).Msg("File download failed")
			continue
		}

		if err := f.sink.WriteFile(record.Name, data); err != nil {
			return &BatchError{
				Kind:      string(b.Kind),
				Index:     b.Index,
				Namespace: b.Namespace,
				Err:       fmt.Errorf("store %s: %w", record.Name, err),
			}
		}

		f.saved.Add(1)
		f.bytes.Add(int64(len(data)))
		filesTotal.WithLabelValues("saved").Inc()
		fileBytesTotal.Add(float64(len(data)))
		f.logger.Debug().Str("file", record.Name).Int("size", len(data)).Str("mime", record.Mime).Msg("File saved")
	}
	return nil
}

// resolve queries imageinfo for the batch titles, 50 at a time, and
// returns one FileRecord per title in request order.
func (f *Files) resolve(ctx context.Context, b batch.Batch) ([]FileRecord, error) {
	byTitle := make(map[string]*api.PageInfo)
	canonical := make(map[string]string)

	for start := 0; start < len(b.Titles); start += apiMaxTitles {
		end := start + apiMaxTitles
		if end > len(b.Titles) {
			end = len(b.Titles)
		}
		if err := f.queryChunk(ctx, b.Titles[start:end], byTitle, canonical); err != nil {
			return nil, err
		}
	}

	records := make([]FileRecord, 0, len(b.Titles))
	for _, title := range b.Titles {
		records = append(records, fileRecord(title, byTitle, canonical))
	}
	return records, nil
}

func (f *Files) queryChunk(ctx context.Context, chunk []wiki.Title, byTitle map[string]*api.PageInfo, canonical map[string]string) error {
	names := make([]string, len(chunk))
	for i, t := range chunk {
		names[i] = t.Name
	}

	var cont api.Continuation
	for !cont.Exhausted() {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("prop", "imageinfo")
		params.Set("iiprop", "url|size|mime")
		params.Set("titles", strings.Join(names, "|"))
		cont.Apply(params)

		rsp, err := f.client.Query(ctx, params)
		if err != nil {
			return err
		}

		mergeImageInfo(rsp, byTitle, canonical)

		if !cont.Advance(rsp.ContinueValues()) {
			f.logger.Warn().Msg("Continuation did not advance, ending chunk")
		}
	}
	return nil
}

// mergeImageInfo folds one imageinfo response into the accumulated map.
func mergeImageInfo(rsp *api.Response, byTitle map[string]*api.PageInfo, canonical map[string]string) {
	for _, n := range rsp.Query.Normalized {
		canonical[n.From] = n.To
	}
	for i := range rsp.Query.Pages {
		page := rsp.Query.Pages[i]
		if existing, ok := byTitle[page.Title]; ok {
			existing.ImageInfo = append(existing.ImageInfo, page.ImageInfo...)
			continue
		}
		byTitle[page.Title] = &page
	}
}

// fileRecord assembles the record for one requested file title.
func fileRecord(title wiki.Title, byTitle map[string]*api.PageInfo, canonical map[string]string) FileRecord {
	record := FileRecord{Title: title.Name, Name: bareFilename(title.Name)}

	name := title.Name
	if to, ok := canonical[name]; ok {
		name = to
	}

	page, ok := byTitle[name]
	if !ok || page.Missing || len(page.ImageInfo) == 0 {
		record.Missing = true
		return record
	}

	info := page.ImageInfo[0]
	record.URL = info.URL
	record.Mime = info.Mime
	record.Size = info.Size
	return record
}

// bareFilename strips the namespace prefix from a file page title, so
// "File:Logo.png" stores as "Logo.png".
func bareFilename(title string) string {
	if i := strings.Index(title, ":"); i >= 0 {
		return title[i+1:]
	}
	return title
}
