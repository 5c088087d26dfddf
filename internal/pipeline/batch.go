package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// BatchProcessor handles concurrent crawling of multiple seed URLs.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-crawl execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each seed URL.
	// We use a factory so each crawl gets a fresh pipeline instance and
	// callers can vary per-seed settings such as the output directory.
	pipelineFactory func(seedURL string) *Pipeline

	// maxDepth is the depth limit applied to every seed.
	maxDepth int

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed crawl reports.
	// Access is synchronized via mutex.
	results []*model.CrawlReport
	mu      sync.Mutex
}

// DefaultBatchConcurrency is the number of seeds crawled at once when no
// override is given.
const DefaultBatchConcurrency = 3

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent crawls.
// Default is 3 if not specified.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each seed URL to create a
// fresh pipeline instance. This ensures that pipeline state doesn't leak
// between crawls and allows per-seed customization such as distinct output
// directories.
func NewBatchProcessor(pipelineFactory func(seedURL string) *Pipeline, maxDepth int, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		maxDepth:        maxDepth,
		concurrency:     DefaultBatchConcurrency,
		results:         make([]*model.CrawlReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls multiple seed URLs concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each seed gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected, even for seeds whose crawl failed.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seedURLs []string) ([]*model.CrawlReport, error) {
	bp.logger.Info("starting batch crawl",
		"total_seeds", len(seedURLs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.CrawlReport, len(seedURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seedURL := range seedURLs {
		i, seedURL := i, seedURL
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling seed",
				"seed", seedURL,
				"index", i+1,
				"total", len(seedURLs),
			)

			report := model.NewCrawlReport(seedURL, bp.maxDepth)

			pipeline := bp.pipelineFactory(seedURL)
			err := pipeline.Execute(ctx, report)
			report.Duration = time.Since(report.StartedAt)

			// Store result regardless of error
			// The report contains error information if the crawl failed
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("crawl failed",
					"seed", seedURL,
					"error", err,
				)
				// Don't return the error to errgroup - we want the other
				// seeds to finish. The error is recorded in the report.
				return nil
			}

			bp.logger.Info("crawl completed", "seed", seedURL)
			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch crawl complete",
		"total_seeds", len(seedURLs),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback crawls multiple seeds and calls a callback
// for each completed crawl. This is useful for streaming results.
//
// The callback receives the report and the index of the seed in the
// original slice. The callback is called from the goroutine that completed
// the crawl, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seedURLs []string,
	callback func(report *model.CrawlReport, index int),
) error {
	bp.logger.Info("starting batch crawl with callback",
		"total_seeds", len(seedURLs),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seedURL := range seedURLs {
		i, seedURL := i, seedURL
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewCrawlReport(seedURL, bp.maxDepth)
			pipeline := bp.pipelineFactory(seedURL)
			_ = pipeline.Execute(ctx, report) //nolint:errcheck // Error is stored in report
			report.Duration = time.Since(report.StartedAt)

			callback(report, i)

			return nil
		})
	}

	return g.Wait()
}
