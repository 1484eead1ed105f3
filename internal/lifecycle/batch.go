package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/storefront/internal/model"
)

// PageFactory loads the page for a render target (a file path or URL).
type PageFactory func(ctx context.Context, target string) (*Page, error)

// BatchProcessor renders several pages concurrently with one Orchestrator.
//
// Design decision: batching lives outside the Orchestrator so a single
// Render stays a plain sequential call, and concurrency limits are a
// concern of whoever renders many pages.
type BatchProcessor struct {
	orchestrator *Orchestrator
	pageFactory  PageFactory
	concurrency  int
	logger       *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets how many pages render at once. The default is 4.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. pageFactory is called once
// per target so every render gets a fresh document and session.
func NewBatchProcessor(o *Orchestrator, pageFactory PageFactory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		orchestrator: o,
		pageFactory:  pageFactory,
		concurrency:  4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch renders every target and returns the pages in target order.
// A target that cannot be loaded yields a page-less report carrying the
// error; rendering failures are recorded in the page report. The error
// return is only set when ctx is cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*Page, []*model.RenderReport, error) {
	bp.logger.Info("starting batch render",
		"targets", len(targets),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	pages := make([]*Page, len(targets))
	reports := make([]*model.RenderReport, len(targets))

	err := bp.run(ctx, targets, func(page *Page, report *model.RenderReport, i int) {
		pages[i] = page
		reports[i] = report
	})

	bp.logger.Info("batch render complete",
		"targets", len(targets),
		"elapsed", time.Since(start),
	)
	return pages, reports, err
}

// ProcessBatchWithCallback renders every target and hands each result to
// callback as soon as it is ready. callback runs on the rendering
// goroutine and must be safe for concurrent use. page is nil when the
// target could not be loaded.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(page *Page, report *model.RenderReport, index int),
) error {
	return bp.run(ctx, targets, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	targets []string,
	done func(page *Page, report *model.RenderReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Debug("rendering target",
				"target", target,
				"index", i+1,
				"total", len(targets),
			)

			page, err := bp.pageFactory(ctx, target)
			if err != nil {
				bp.logger.Warn("failed to load target", "target", target, "error", err)
				report := model.NewRenderReport(target)
				report.Error = err.Error()
				done(nil, report, i)
				return nil
			}

			if err := bp.orchestrator.Render(ctx, page); err != nil {
				bp.logger.Warn("render failed", "target", target, "error", err)
			}
			done(page, page.Report, i)
			return nil
		})
	}
	return g.Wait()
}
