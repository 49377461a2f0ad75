package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/wiki-export/pkg/wiki"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind tells the fetcher what a batch's titles represent.
type Kind string

const (
	// KindPage batches fetch page revisions for the XML export.
	KindPage Kind = "page"

	// KindFile batches fetch uploaded file binaries.
	KindFile Kind = "file"
)

// Batch is one unit of work: a run of consecutive titles from a
// namespace listing.
type Batch struct {
	// Index is the batch's sequence number within its kind, counted
	// across namespaces in enumeration order.
	Index int

	// Kind selects the fetcher behavior.
	Kind Kind

	// Namespace the titles were listed from.
	Namespace int

	// Titles in listing order.
	Titles []wiki.Title
}

// Result reports the outcome of one batch. Every scheduled batch
// produces exactly one Result; Err is set when the whole batch failed.
type Result struct {
	Batch    Batch
	Err      error
	Duration time.Duration
}

// Fetcher processes a single batch. Implementations deliver fetched
// records to their own sink and report only success or failure here.
type Fetcher interface {
	FetchBatch(ctx context.Context, b Batch) error
}

// Config holds scheduler configuration.
type Config struct {
	// Concurrency is the maximum number of batches in flight.
	Concurrency int

	// Timeout per batch fetch.
	Timeout time.Duration
}

// DefaultConfig returns a configuration polite enough for public wikis.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     2 * time.Minute,
	}
}

// Scheduler runs batches through a bounded worker pool.
type Scheduler struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// NewScheduler creates a scheduler for the given fetcher.
func NewScheduler(fetcher Fetcher, config Config) *Scheduler {
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	return &Scheduler{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Partition slices titles into consecutive batches of batchSize,
// preserving listing order. The last batch may be short. Batch indices
// start at startIndex so listings from several namespaces can share one
// sequence.
func Partition(namespace int, titles []wiki.Title, batchSize int, kind Kind, startIndex int) []Batch {
	if batchSize < 1 {
		batchSize = 1
	}

	var batches []Batch
	for offset := 0; offset < len(titles); offset += batchSize {
		end := offset + batchSize
		if end > len(titles) {
			end = len(titles)
		}
		batches = append(batches, Batch{
			Index:     startIndex + len(batches),
			Kind:      kind,
			Namespace: namespace,
			Titles:    titles[offset:end],
		})
	}
	return batches
}

// Run schedules all batches and returns the result stream. The returned
// channel delivers exactly one Result per batch, in completion order,
// and closes when the pool drains. A concurrency limit below 1 fails
// before anything is scheduled.
func (s *Scheduler) Run(ctx context.Context, batches []Batch) (<-chan Result, error) {
	if s.config.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency limit must be at least 1 (got %d)", s.config.Concurrency)
	}

	s.logger.Info().
		Int("batches", len(batches)).
		Int("concurrency", s.config.Concurrency).
		Msg("Scheduling batches")

	// Buffered to queue length: workers never block, FIFO admission
	// comes from channel order.
	queue := make(chan Batch, len(batches))
	results := make(chan Result, len(batches))

	for _, b := range batches {
		queue <- b
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Concurrency; i++ {
		wg.Add(1)
		go s.worker(ctx, queue, results, &wg, i)
	}

	// Close results channel when all workers done
	go func() {
		wg.Wait()
		close(results)
	}()

	return results, nil
}

// worker processes batches from the queue until it drains. A batch
// failure is contained in its Result; the worker moves on.
func (s *Scheduler) worker(ctx context.Context, queue <-chan Batch, results chan<- Result, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for b := range queue {
		// After cancellation, drain the queue so every batch still
		// gets its Result.
		select {
		case <-ctx.Done():
			results <- Result{
				Batch: b,
				Err:   fmt.Errorf("batch %d abandoned: %w", b.Index, ctx.Err()),
			}
			continue
		default:
		}

		batchesInFlight.Inc()
		start := time.Now()

		batchCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		err := s.fetcher.FetchBatch(batchCtx, b)
		cancel()

		duration := time.Since(start)
		batchesInFlight.Dec()
		batchDuration.WithLabelValues(string(b.Kind)).Observe(duration.Seconds())

		if err != nil {
			batchesTotal.WithLabelValues(string(b.Kind), "failed").Inc()
			s.logger.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("batch", b.Index).
				Str("kind", string(b.Kind)).
				Int("titles", len(b.Titles)).
				Msg("Batch fetch failed")
		} else {
			batchesTotal.WithLabelValues(string(b.Kind), "ok").Inc()
		}

		results <- Result{Batch: b, Err: err, Duration: duration}
		processed++
	}

	if processed > 0 {
		s.logger.Debug().
			Int("worker_id", workerID).
			Int("batches_processed", processed).
			Msg("Worker completed")
	}
}
