package export

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/wiki-export/pkg/api"
	"github.com/Sternrassler/wiki-export/pkg/batch"
	"github.com/Sternrassler/wiki-export/pkg/fetch"
	"github.com/Sternrassler/wiki-export/pkg/wiki"
)

// fileNamespaceID is the canonical MediaWiki namespace for uploads.
const fileNamespaceID = 6

// batchTimeout bounds a single batch fetch. History batches chain many
// requests, so the ceiling is generous; cancellation stays responsive
// through the request context.
const batchTimeout = 15 * time.Minute

// Exporter drives a full export run: endpoint discovery, site metadata,
// namespace enumeration, batched fetching and ordered XML emission.
type Exporter struct {
	opts   Options
	out    io.Writer
	logger zerolog.Logger
}

// New validates the options and creates an exporter writing the XML
// document to out.
func New(opts Options, out io.Writer) (*Exporter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Exporter{
		opts:   opts,
		out:    out,
		logger: log.With().Str("component", "exporter").Logger(),
	}, nil
}

// Run executes the export and returns its summary. Namespace and batch
// failures are recorded in the summary and do not abort the run; only
// configuration, discovery and site metadata errors are fatal.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()

	endpoint, err := api.ResolveEndpoint(ctx, e.opts.WikiURL, e.opts.UserAgent)
	if err != nil {
		return nil, err
	}

	client, err := api.New(api.Config{
		Endpoint:  endpoint,
		UserAgent: e.opts.UserAgent,
		Timeout:   e.opts.Timeout,
		Retry:     e.opts.Retry,
		Redis:     e.opts.Redis,
		CacheTTL:  e.opts.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	site, err := wiki.FetchSiteInfo(ctx, client)
	if err != nil {
		return nil, err
	}
	e.logger.Info().
		Str("site", site.Name).
		Str("generator", site.Generator).
		Int64("pages", site.Statistics.Pages).
		Int64("images", site.Statistics.Images).
		Int("namespaces", len(site.Namespaces)).
		Msg("Starting export")

	writer := NewWriter(e.out)
	if err := writer.WriteHeader(site); err != nil {
		return nil, err
	}

	pages := fetch.NewPages(client, writer, e.opts.History)
	router := kindRouter{pages: pages}

	var files *fetch.Files
	if e.opts.SaveDir != "" {
		sink, err := NewDirSink(e.opts.SaveDir)
		if err != nil {
			return nil, err
		}
		files = fetch.NewFiles(client, sink)
		router.files = files
	}

	scheduler := batch.NewScheduler(router, batch.Config{
		Concurrency: e.opts.Limit,
		Timeout:     batchTimeout,
	})
	enumerator := wiki.NewEnumerator(client)

	summary := &Summary{}
	pageIndex := 0
	fileIndex := 0

	for _, ns := range site.Namespaces {
		if ctx.Err() != nil {
			break
		}

		titles, err := enumerator.Titles(ctx, ns.ID)
		if err != nil {
			summary.FailedNamespaces = append(summary.FailedNamespaces, ns.ID)
			e.logger.Error().Err(err).Int("namespace", ns.ID).Msg("Namespace abandoned")
			continue
		}
		if len(titles) == 0 {
			continue
		}

		batches := batch.Partition(ns.ID, titles, e.opts.BatchSize, batch.KindPage, pageIndex)
		pageIndex += len(batches)

		if files != nil && ns.ID == fileNamespaceID {
			fileBatches := batch.Partition(ns.ID, titles, e.opts.BatchSize, batch.KindFile, fileIndex)
			fileIndex += len(fileBatches)
			batches = append(batches, fileBatches...)
		}

		results, err := scheduler.Run(ctx, batches)
		if err != nil {
			return nil, err
		}
		for result := range results {
			if result.Err == nil {
				continue
			}
			summary.FailedBatches++
			e.logger.Error().Err(result.Err).
				Str("kind", string(result.Batch.Kind)).
				Int("batch", result.Batch.Index).
				Int("namespace", result.Batch.Namespace).
				Msg("Batch failed")

			if result.Batch.Kind == batch.KindPage {
				if err := writer.WriteMissing(result.Batch.Index, result.Batch.Titles); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	summary.Pages = writer.Exported()
	summary.MissingPages = writer.Missing()
	if files != nil {
		stats := files.Stats()
		summary.FilesSaved = stats.Saved
		summary.FilesMissing = stats.Missing
		summary.FilesSkipped = stats.Skipped
		summary.FileBytes = stats.Bytes
	}
	summary.Duration = time.Since(started)

	e.logger.Info().
		Int64("pages", summary.Pages).
		Int64("missing", summary.MissingPages).
		Int64("files", summary.FilesSaved).
		Int64("files_missing", summary.FilesMissing).
		Int64("files_skipped", summary.FilesSkipped).
		Ints("failed_namespaces", summary.FailedNamespaces).
		Int("failed_batches", summary.FailedBatches).
		Dur("duration", summary.Duration).
		Msg("Export finished")

	return summary, nil
}

// kindRouter dispatches scheduled batches to the fetcher for their
// kind, so one worker pool bounds pages and files together.
type kindRouter struct {
	pages batch.Fetcher
	files batch.Fetcher
}

func (r kindRouter) FetchBatch(ctx context.Context, b batch.Batch) error {
	if b.Kind == batch.KindFile && r.files != nil {
		return r.files.FetchBatch(ctx, b)
	}
	return r.pages.FetchBatch(ctx, b)
}
