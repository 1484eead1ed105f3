package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/storefront/internal/config"
	"github.com/nao1215/storefront/internal/database"
	"github.com/nao1215/storefront/internal/httpclient"
	"github.com/nao1215/storefront/internal/index"
	"github.com/nao1215/storefront/internal/lifecycle"
	"github.com/nao1215/storefront/internal/model"
	"github.com/nao1215/storefront/internal/product"
	"github.com/nao1215/storefront/internal/report"
	"github.com/nao1215/storefront/internal/session"
)

// dropinScript is the module that initializes the rendering runtime.
const dropinScript = "/scripts/dropins.js"

// renderOptions are the render flags that are not part of Config.
type renderOptions struct {
	pageURL       string
	verify        bool
	showAnalytics bool
	tee           bool
}

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [target...]",
		Short: "Render storefront pages through the page lifecycle",
		Long: `Render loads each target, classifies it and runs the eager, lazy and
delayed phases of the storefront page lifecycle.

A target is a local HTML file, an absolute URL, or a path on --base-url.
Product pages without embedded product data query the catalog service
given by --product-endpoint.

Examples:
  # Render a local file as the home page of localhost
  storefront render index.html

  # Render a saved product page at its real address
  storefront render --page-url https://shop.example.com/products/bag/adb150 page.html

  # Render live pages and write a Markdown report
  storefront render -u https://shop.example.com -m -o report.md / /products/bag/adb150

  # Render as a mobile visitor with fonts already cached
  storefront render --viewport 375 --session fonts-loaded=true index.html

  # Keep the rendered documents
  storefront render --output-dir out/ index.html product.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runRenderCmd,
	}

	f := cmd.Flags()

	// Lifecycle flags
	f.Int("viewport", config.DefaultViewport, "Simulated viewport width in pixels")
	f.StringP("language", "l", config.DefaultLanguage, `Document language, or "auto" to detect it`)
	f.Duration("delay", config.DefaultDelayedAfter, "Delay before the delayed phase")
	f.String("code-base-path", "", "Prefix of script, style and block asset paths")
	f.String("store-view", "", "Store view code prefixing the view history keys")
	f.StringSlice("session", nil, "Seed a session value (key=value, repeatable)")
	f.String("page-url", "", "Page URL of a local file target")
	f.Bool("verify-resources", false, "Check stylesheets and scripts with a HEAD request before loading")

	// Catalog flags
	f.String("product-endpoint", "",
		"Catalog service URL for product pages (env: "+config.EnvProductEndpoint+")")
	f.Bool("strict-currency", false, "Reject products whose variants mix currencies")

	// Batch flags
	f.IntP("batch", "b", config.DefaultBatchSize, "Number of pages rendered concurrently")

	// Output flags
	f.String("output-dir", "", "Write each rendered document to this directory")
	f.BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	f.StringP("report-file", "o", "", "Write report to specified file path (creates directories if needed)")
	f.Bool("show-analytics", false, "Include the analytics data layer in the text report")
	f.Bool("tee", false, "Also print the text report when writing to --report-file")

	return cmd
}

// runRenderCmd executes the render command.
func runRenderCmd(cmd *cobra.Command, args []string) error {
	var opts renderOptions
	cfg, err := buildConfig(cmd, args, func(cfg *config.Config) error {
		return readRenderFlags(cmd, cfg, &opts)
	})
	if err != nil {
		return err
	}

	if err := cfg.ValidateRender(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	return runRender(ctx, cmd.OutOrStdout(), cfg, opts, logger)
}

// readRenderFlags copies the render flags into cfg and opts.
func readRenderFlags(cmd *cobra.Command, cfg *config.Config, opts *renderOptions) error {
	f := cmd.Flags()
	var err error

	if cfg.Viewport, err = f.GetInt("viewport"); err != nil {
		return err
	}
	if cfg.Language, err = f.GetString("language"); err != nil {
		return err
	}
	if cfg.DelayedAfter, err = f.GetDuration("delay"); err != nil {
		return err
	}
	if cfg.CodeBasePath, err = f.GetString("code-base-path"); err != nil {
		return err
	}
	if cfg.StoreView, err = f.GetString("store-view"); err != nil {
		return err
	}
	pairs, err := f.GetStringSlice("session")
	if err != nil {
		return err
	}
	cfg.Session = session.ParsePairs(pairs)
	if cfg.ProductEndpoint, err = f.GetString("product-endpoint"); err != nil {
		return err
	}
	if cfg.StrictCurrency, err = f.GetBool("strict-currency"); err != nil {
		return err
	}
	if cfg.BatchSize, err = f.GetInt("batch"); err != nil {
		return err
	}
	if cfg.OutputDir, err = f.GetString("output-dir"); err != nil {
		return err
	}
	if cfg.JSONReport, err = f.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = f.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = f.GetString("report-file"); err != nil {
		return err
	}

	if opts.pageURL, err = f.GetString("page-url"); err != nil {
		return err
	}
	if opts.verify, err = f.GetBool("verify-resources"); err != nil {
		return err
	}
	if opts.showAnalytics, err = f.GetBool("show-analytics"); err != nil {
		return err
	}
	if opts.tee, err = f.GetBool("tee"); err != nil {
		return err
	}
	return nil
}

// runRender renders every target, then writes documents, reports and
// history.
func runRender(ctx context.Context, w io.Writer, cfg *config.Config, opts renderOptions, logger *slog.Logger) error {
	logger.Info("starting render",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	cache := newIndexCache(client, db, cfg, logger)
	if _, err := cache.Warm(ctx, index.DefaultQueryIndex); err != nil {
		logger.Warn("failed to read stored index", "index", index.DefaultQueryIndex, "error", err)
	}

	orchestrator, err := newOrchestrator(cfg, client, cache, logger)
	if err != nil {
		return err
	}

	bp := lifecycle.NewBatchProcessor(orchestrator,
		newPageFactory(client, cfg, opts, logger),
		lifecycle.WithConcurrency(cfg.BatchSize),
		lifecycle.WithBatchLogger(logger),
	)

	start := time.Now()
	pages, reports, err := bp.ProcessBatch(ctx, cfg.Targets)
	if err != nil {
		return err
	}

	// Delayed phases run after the lazy phase; wait for them so the
	// reports and documents are final.
	drainCtx, cancelDrain := context.WithTimeout(ctx, cfg.DelayedAfter+cfg.Timeout)
	if err := orchestrator.Drain(drainCtx); err != nil {
		logger.Warn("background work still running", "error", err)
	}
	cancelDrain()

	finishPages(ctx, cfg, pages, db, logger)

	out, closeOut, err := openOutput(cfg, w)
	if err != nil {
		return err
	}
	defer closeOut()

	writer := newReportWriter(cfg, out, opts.showAnalytics)
	if opts.tee && cfg.ReportFile != "" {
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(w, report.WithVerbose(opts.showAnalytics)))
	}
	if err := writeReports(writer, reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info("render complete",
		"targets", len(cfg.Targets),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	failed := 0
	for _, r := range reports {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed to render", failed, len(reports))
	}
	return nil
}

// newOrchestrator wires the lifecycle collaborators from cfg.
func newOrchestrator(cfg *config.Config, client *httpclient.Client, cache *index.Cache, logger *slog.Logger) (*lifecycle.Orchestrator, error) {
	settings := lifecycle.Settings{
		Language:         cfg.Language,
		Viewport:         cfg.Viewport,
		FontThreshold:    cfg.FontThreshold,
		MobileBreakpoint: cfg.MobileBreakpoint,
		DelayedAfter:     cfg.DelayedAfter,
		CodeBasePath:     cfg.CodeBasePath,
		StoreView:        cfg.StoreView,
		StrictCurrency:   cfg.StrictCurrency,
	}

	opts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithSettings(settings),
		lifecycle.WithCategoryPreloader(index.NewPrewarmer(cache, index.WithPrewarmLogger(logger))),
		lifecycle.WithDropins(lifecycle.DropinFunc(func(ctx context.Context, page *lifecycle.Page) error {
			return page.Resources.LoadScript(ctx, cfg.CodeBasePath+dropinScript, map[string]string{"type": "module"})
		})),
	}

	if cfg.ProductEndpoint != "" {
		svc, err := newProductService(cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lifecycle.WithProductService(svc))
	}

	logger.Debug("orchestrator configured",
		"viewport", cfg.Viewport,
		"language", cfg.Language,
		"productService", cfg.ProductEndpoint != "",
		"base", client.BaseURL().String(),
	)
	return lifecycle.New(opts...), nil
}

// newProductService creates the coalescing catalog client.
func newProductService(cfg *config.Config, logger *slog.Logger) (product.Service, error) {
	client, err := httpclient.New(cfg.ProductEndpoint, clientOptions(cfg, hostOf(cfg.ProductEndpoint))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}
	return product.NewCoalescingService(product.NewHTTPService(client, "", logger)), nil
}

// newPageFactory loads render targets into pages with a fresh session
// seeded from cfg.
func newPageFactory(client *httpclient.Client, cfg *config.Config, opts renderOptions, logger *slog.Logger) lifecycle.PageFactory {
	return func(ctx context.Context, target string) (*lifecycle.Page, error) {
		doc, pageURL, err := loadTarget(ctx, client, cfg, target, opts.pageURL)
		if err != nil {
			return nil, err
		}
		pageOpts := []lifecycle.PageOption{
			lifecycle.WithSession(session.NewMemory(cfg.Session)),
			lifecycle.WithPageLogger(logger),
		}
		if opts.verify {
			pageOpts = append(pageOpts, lifecycle.WithVerifier(client))
		}
		return lifecycle.NewPage(doc, pageURL, pageOpts...)
	}
}

// finishPages serializes every rendered document, which fills the size and
// content hash of its report, writes it to the output directory and saves
// the report.
func finishPages(ctx context.Context, cfg *config.Config, pages []*lifecycle.Page, db *database.DB, logger *slog.Logger) {
	names := make(map[string]int)
	for _, page := range pages {
		if page == nil {
			continue
		}

		html, err := page.HTML()
		if err != nil {
			page.Report.AddWarning("serialize: " + err.Error())
			logger.Warn("failed to serialize page", "url", page.Report.URL, "error", err)
			continue
		}

		if cfg.OutputDir != "" {
			name := outputName(page.URL().Path, names)
			if err := writeDocument(cfg.OutputDir, name, html); err != nil {
				logger.Error("failed to write document", "url", page.Report.URL, "error", err)
			}
		}

		if db != nil {
			if err := db.SaveRenderReport(ctx, page.Report); err != nil {
				logger.Error("failed to save render report", "url", page.Report.URL, "error", err)
			}
		}
	}
}

// outputName derives a unique file name from a page path. seen counts the
// names handed out so far.
func outputName(urlPath string, seen map[string]int) string {
	base := strings.ReplaceAll(strings.Trim(urlPath, "/"), "/", "-")
	if base == "" {
		base = "index"
	}
	seen[base]++
	if n := seen[base]; n > 1 {
		base += "-" + strconv.Itoa(n)
	}
	return base + ".html"
}

// writeDocument writes html to dir/name.
func writeDocument(dir, name, html string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(html), 0600)
}

// writeReports writes every report, followed by a summary when there is
// more than one.
func writeReports(w report.Writer, reports []*model.RenderReport) error {
	for _, r := range reports {
		if r == nil {
			continue
		}
		if _, err := w.Write(r); err != nil {
			return err
		}
	}
	if len(reports) > 1 {
		if _, err := w.WriteSummary(report.NewSummary(reports)); err != nil {
			return err
		}
	}
	return nil
}
