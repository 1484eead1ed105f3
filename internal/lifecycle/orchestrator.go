package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/async"
	"github.com/nao1215/storefront/internal/decorator"
	"github.com/nao1215/storefront/internal/language"
	"github.com/nao1215/storefront/internal/product"
)

// Settings are the tunables of the lifecycle.
type Settings struct {
	// Language is the document language, or "auto" to detect it.
	Language string

	// Viewport is the simulated viewport width in pixels.
	Viewport int

	// FontThreshold is the viewport width from which fonts load eagerly.
	FontThreshold int

	// MobileBreakpoint splits the mobile and desktop audiences.
	MobileBreakpoint int

	// DelayedAfter is how long after the lazy phase starts the delayed
	// phase runs.
	DelayedAfter time.Duration

	// CodeBasePath prefixes every script, style and block asset path.
	CodeBasePath string

	// StoreView prefixes the view history session keys.
	StoreView string

	// StrictCurrency rejects products whose variants mix currencies.
	StrictCurrency bool
}

// DefaultSettings returns the settings of a desktop visitor.
func DefaultSettings() Settings {
	return Settings{
		Language:         "en",
		Viewport:         1280,
		FontThreshold:    900,
		MobileBreakpoint: 600,
		DelayedAfter:     3 * time.Second,
	}
}

// Orchestrator renders pages through the eager, lazy and delayed phases.
// One Orchestrator serves any number of pages, concurrently.
type Orchestrator struct {
	settings   Settings
	logger     *slog.Logger
	products   product.Service
	dropins    DropinInitializer
	experiment ExperimentationPlugin
	category   CategoryPreloader
	delayed    DelayedLoader
	detector   *language.Detector
	handlers   map[string]decorator.BlockHandler
	background *async.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(o *Orchestrator) {
		o.settings = s
	}
}

// WithProductService sets the service product pages without embedded data
// request their record from.
func WithProductService(s product.Service) Option {
	return func(o *Orchestrator) {
		o.products = s
	}
}

// WithDropins sets the rendering runtime initializer.
func WithDropins(d DropinInitializer) Option {
	return func(o *Orchestrator) {
		o.dropins = d
	}
}

// WithExperimentation sets the experimentation plugin.
func WithExperimentation(p ExperimentationPlugin) Option {
	return func(o *Orchestrator) {
		o.experiment = p
	}
}

// WithCategoryPreloader sets the category pre-warmer used by custom
// listing pages.
func WithCategoryPreloader(c CategoryPreloader) Option {
	return func(o *Orchestrator) {
		o.category = c
	}
}

// WithDelayedLoader replaces the default delayed phase, which loads
// scripts/delayed.js.
func WithDelayedLoader(d DelayedLoader) Option {
	return func(o *Orchestrator) {
		o.delayed = d
	}
}

// WithLanguageDetector sets the detector used when the language is "auto".
func WithLanguageDetector(d *language.Detector) Option {
	return func(o *Orchestrator) {
		o.detector = d
	}
}

// WithBlockHandler registers a block handler on every page's decorator.
func WithBlockHandler(name string, h decorator.BlockHandler) Option {
	return func(o *Orchestrator) {
		o.handlers[name] = h
	}
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings: DefaultSettings(),
		handlers: make(map[string]decorator.BlockHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.detector == nil && o.settings.Language == language.Auto {
		o.detector = language.NewDetector("", o.logger)
	}
	o.background = async.NewGroup(o.logger)
	return o
}

// Settings returns the active settings.
func (o *Orchestrator) Settings() Settings {
	return o.settings
}

// render is the per-page state shared by the steps of one Render call.
type render struct {
	o          *Orchestrator
	page       *Page
	dec        *decorator.Decorator
	normalizer *product.Normalizer
	plugin     PluginOptions
}

// Render runs the eager phase, then the lazy phase, and schedules the
// delayed phase when the lazy phase starts. It returns when the lazy phase
// is done; background work continues until Drain. Step failures are
// recorded in the report and never stop rendering. Only cancellation of
// ctx does, in which case its error is returned.
func (o *Orchestrator) Render(ctx context.Context, page *Page) error {
	r := o.newRender(page)

	o.logger.Info("rendering page", "url", page.Report.URL)
	start := time.Now()

	if err := r.eagerPipeline().Execute(ctx, page); err != nil {
		return r.fail(err)
	}
	page.Flush()

	r.scheduleDelayed(ctx)

	if err := r.lazyPipeline().Execute(ctx, page); err != nil {
		return r.fail(err)
	}
	page.Flush()
	page.Report.Analytics = page.DataLayer.Entries()

	o.logger.Info("page ready",
		"url", page.Report.URL,
		"page_type", page.Report.PageType.String(),
		"hints", page.Report.HintCount(),
		"elapsed", time.Since(start),
	)
	return nil
}

func (r *render) fail(err error) error {
	r.page.Report.Error = err.Error()
	r.page.Flush()
	return err
}

// Drain waits for the background work of every rendered page: delayed
// phases, category pre-warms and debug tooling. Their failures are only
// logged; Drain reports whether they finished before ctx was done.
func (o *Orchestrator) Drain(ctx context.Context) error {
	if err := o.background.Wait(ctx); err != nil {
		return fmt.Errorf("background work did not finish: %w", err)
	}
	started, failed := o.background.Stats()
	o.logger.Debug("background work drained", "tasks", started, "failed", failed)
	return nil
}

func (o *Orchestrator) newRender(page *Page) *render {
	r := &render{
		o:    o,
		page: page,
		plugin: PluginOptions{
			Audiences: Audiences(o.settings.MobileBreakpoint),
			Viewport:  o.settings.Viewport,
		},
	}

	decOpts := []decorator.Option{
		decorator.WithLogger(o.logger),
		decorator.WithAssetLoader(page.Resources),
		decorator.WithCodeBasePath(o.settings.CodeBasePath),
		decorator.WithBlockHandler(string(MarkerProductDetails), r.productBlock),
		decorator.WithBlockHandler(string(MarkerCustomProduct), r.productBlock),
	}
	for name, h := range o.handlers {
		decOpts = append(decOpts, decorator.WithBlockHandler(name, h))
	}
	r.dec = decorator.New(decOpts...)

	r.normalizer = product.NewNormalizer(
		product.WithLogger(o.logger),
		product.WithBaseURL(page.URL()),
		product.WithStrictCurrency(o.settings.StrictCurrency),
	)
	return r
}

// productBlock ties a product block to the page's product record. It waits
// for the record and stamps the block with its SKU.
func (r *render) productBlock(ctx context.Context, block *goquery.Selection) error {
	if !r.page.HasProduct() {
		return nil
	}
	p, err := r.page.Product(ctx)
	if err != nil {
		if errors.Is(err, ErrNoProduct) {
			return nil
		}
		return fmt.Errorf("product unavailable: %w", err)
	}
	block.SetAttr("data-sku", p.SKU)
	return nil
}

func (r *render) asset(path string) string {
	return r.o.settings.CodeBasePath + path
}
