package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/notiontidy/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of roots processed at once unless
// WithConcurrency says otherwise.
const DefaultConcurrency = 1

// TreeNormalizer normalizes the page tree under one root.
// *normalizer.Normalizer implements it.
type TreeNormalizer interface {
	NormalizeTree(ctx context.Context, root string) (*model.RunReport, error)
}

// Target is one root to process.
type Target struct {
	// Name is the configured root name. It is copied into the report.
	Name string

	// ID is the root page.
	ID model.PageID
}

// BatchProcessor normalizes several roots with a concurrency limit.
type BatchProcessor struct {
	// factory creates a new normalizer for each root.
	factory func() TreeNormalizer

	// concurrency is the maximum number of roots processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// onComplete is called for every root that produced a report.
	onComplete func(index int, report *model.RunReport)

	// mu serializes onComplete calls.
	mu sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of roots processed at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithOnComplete registers a callback for each finished root, including
// roots that stopped with an error. Calls never overlap.
func WithOnComplete(fn func(index int, report *model.RunReport)) BatchOption {
	return func(b *BatchProcessor) {
		b.onComplete = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor. factory is called once
// per root.
func NewBatchProcessor(factory func() TreeNormalizer, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch normalizes every target and returns the reports in the
// order of targets.
//
// A root that fails still yields its report, with Error set. Roots that
// never started because ctx was cancelled have a nil entry. The returned
// error is ctx's error if the batch was cancelled, and nil otherwise.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []Target) ([]*model.RunReport, error) {
	bp.logger.Info("starting batch processing",
		"total_roots", len(targets),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	results := make([]*model.RunReport, len(targets))

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			bp.logger.Info("normalizing root",
				"root", target.Name,
				"id", target.ID,
				"index", i+1,
				"total", len(targets),
			)

			report, err := bp.factory().NormalizeTree(ctx, target.ID.String())
			if report == nil {
				report = model.NewRunReport(target.Name, target.ID)
				report.FinishedAt = report.StartedAt
			}
			report.RootName = target.Name
			if err != nil {
				if report.Error == "" {
					report.Error = err.Error()
				}
				bp.logger.Warn("root failed", "root", target.Name, "error", err)
			}

			results[i] = report
			bp.complete(i, report)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines record errors in their reports

	bp.logger.Info("batch processing complete",
		"total_roots", len(targets),
		"elapsed", time.Since(startTime),
	)

	return results, ctx.Err()
}

func (bp *BatchProcessor) complete(index int, report *model.RunReport) {
	if bp.onComplete == nil {
		return
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.onComplete(index, report)
}
