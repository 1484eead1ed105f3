package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/analytics"
	"github.com/nao1215/storefront/internal/async"
	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/events"
	"github.com/nao1215/storefront/internal/model"
	"github.com/nao1215/storefront/internal/product"
	"github.com/nao1215/storefront/internal/session"
)

// Asset paths referenced by the lifecycle, relative to the code base path.
const (
	FontsCSS        = "/styles/fonts.css"
	LazyStylesCSS   = "/styles/lazy-styles.css"
	DataLayerScript = "/scripts/acdl/adobe-client-data-layer.min.js"
	ValidatorScript = "/scripts/acdl/validate.js"
	DelayedScript   = "/scripts/delayed.js"
	SearchWidget    = "/scripts/widgets/search.js"
	PlaceholdersURL = "/placeholders.json"
)

// pdpScripts are the product details runtime chunks every product page
// preloads.
var pdpScripts = []string{
	"/scripts/__dropins__/storefront-pdp/containers/ProductDetails.js",
	"/scripts/__dropins__/storefront-pdp/api.js",
	"/scripts/__dropins__/storefront-pdp/render.js",
	"/scripts/__dropins__/storefront-pdp/chunks/initialize.js",
	"/scripts/__dropins__/storefront-pdp/chunks/getRefinedProduct.js",
}

// customPDPScripts are preloaded by the custom product details block.
var customPDPScripts = []string{
	"/scripts/__dropins__/tools/preact.js",
	"/scripts/htm.js",
	"/blocks/product-details-custom/ProductDetailsCarousel.js",
	"/blocks/product-details-custom/ProductDetailsSidebar.js",
	"/blocks/product-details-custom/ProductDetailsShimmer.js",
	"/blocks/product-details-custom/Icon.js",
}

// imageWidths pairs rendition widths with the viewport widths they serve.
var imageWidths = []struct{ rendition, viewport int }{
	{384, 768},
	{512, 1024},
	{683, 1366},
	{960, 1920},
}

// FontResult is the outcome of a font load attempt.
type FontResult struct {
	Attempted bool
	Loaded    bool
	Err       error
}

func (r *render) eagerPipeline() *Pipeline {
	p := NewPipeline(PhaseEager,
		WithPipelineLogger(r.o.logger),
		WithContinueOnError(true),
	)
	p.AddSteps(
		NewStep("language", r.setLanguage),
		NewStep("dropins", r.initDropins),
		NewStep("template", r.decorateTemplate),
		NewStep("experimentation", r.experimentEager),
		NewStep("classify", r.classify),
		NewStep("analytics", r.pushPageContext),
		NewStep("main", r.decorateMain),
		NewStep("lcp", r.emitLCP),
		NewStep("fonts", r.eagerFonts),
	)
	return p
}

func (r *render) setLanguage(_ context.Context, page *Page) error {
	return page.Mutate(func(doc *goquery.Document) error {
		lang := r.o.settings.Language
		if r.o.detector != nil {
			lang = r.o.detector.Resolve(lang, doc)
		}
		if lang == "" {
			lang = "en"
		}
		dom.SetLanguage(doc, lang)
		page.Report.Language = lang
		page.Report.Title = dom.Title(doc)
		return nil
	})
}

func (r *render) initDropins(ctx context.Context, page *Page) error {
	if r.o.dropins == nil {
		return nil
	}
	if err := r.o.dropins.Initialize(ctx, page); err != nil {
		return fmt.Errorf("failed to initialize dropins: %w", err)
	}
	return nil
}

func (r *render) decorateTemplate(_ context.Context, page *Page) error {
	return page.Mutate(func(doc *goquery.Document) error {
		r.dec.DecorateTemplateAndTheme(doc)
		return nil
	})
}

func (r *render) experimentSignals(page *Page) bool {
	var signals bool
	page.Read(func(doc *goquery.Document) { signals = hasExperimentSignals(doc) })
	return signals
}

func (r *render) experimentEager(ctx context.Context, page *Page) error {
	if !r.experimentSignals(page) {
		return nil
	}
	page.Report.Experiment = true
	if r.o.experiment == nil {
		return nil
	}
	if err := r.o.experiment.Eager(ctx, page, r.plugin, newPluginContext(page)); err != nil {
		r.o.logger.Warn("experimentation eager hook failed", "url", page.Report.URL, "error", err)
	}
	return nil
}

// classify decides the page type and starts whatever data loading and
// preloading that type needs.
func (r *render) classify(ctx context.Context, page *Page) error {
	var (
		pageType model.PageType
		marker   Marker
		config   map[string]string
	)
	page.Read(func(doc *goquery.Document) {
		pageType, marker = Classify(doc)
		if marker == MarkerCustomProduct || marker == MarkerCustomList {
			config = dom.ReadBlockConfig(markerBlock(doc, marker))
		}
	})
	page.Report.PageType = pageType
	r.o.logger.Debug("page classified",
		"url", page.Report.URL,
		"page_type", pageType.String(),
		"marker", string(marker),
	)

	switch marker {
	case MarkerEmbeddedProduct:
		return r.embeddedProduct(page)
	case MarkerProductDetails:
		r.preloadAll(page, pdpScripts)
		r.requestProduct(ctx, page, "")
	case MarkerCustomProduct:
		r.preloadAll(page, customPDPScripts)
		r.requestProduct(ctx, page, config["sku"])
	case MarkerProductList:
		r.preloadFile(page, SearchWidget, model.PreloadAsScript)
	case MarkerCustomList:
		r.prewarmCategory(ctx, page, config["category"], config["urlpath"])
	}
	return nil
}

// embeddedProduct builds the product record from the document, replaces
// main with a single product-details block and preloads what the product
// details runtime will ask for first.
func (r *render) embeddedProduct(page *Page) error {
	var (
		record *model.ProductRecord
		err    error
	)
	mutErr := page.Mutate(func(doc *goquery.Document) error {
		record, err = r.normalizer.Parse(doc)
		main := dom.Main(doc)
		if main.Length() == 0 {
			return nil
		}
		dom.RemoveChildren(main.Nodes[0])
		wrapper := dom.NewElement("div")
		dom.Append(wrapper, dom.BuildBlock(string(MarkerProductDetails), [][]dom.Cell{{{}}}))
		dom.Append(main.Nodes[0], wrapper)
		return nil
	})
	if mutErr != nil {
		return mutErr
	}
	if err != nil {
		page.setProduct(async.Rejected[*model.ProductRecord](err))
		return fmt.Errorf("failed to parse embedded product: %w", err)
	}
	page.setProduct(async.Resolved(record))
	page.Report.Product = record
	if record.IsComplex() && record.PriceRange == nil {
		page.Report.AddWarning("product " + record.SKU + ": no variant prices, price range omitted")
	}

	if img, ok := record.PrimaryImage(); ok {
		r.preload(page, model.PreloadHint{
			Href:        img.URL,
			As:          model.PreloadAsImage,
			ImageSrcSet: imageSrcSet(img.URL),
		})
	}
	r.preloadFile(page, PlaceholdersURL, model.PreloadAsFetch)
	r.preloadAll(page, pdpScripts)
	return nil
}

// imageSrcSet lists the optimized renditions of a product image.
func imageSrcSet(src string) string {
	parts := make([]string, 0, len(imageWidths))
	for _, w := range imageWidths {
		parts = append(parts, fmt.Sprintf("%s?auto=webp&quality=80&crop=false&fit=cover&width=%d %dw", src, w.rendition, w.viewport))
	}
	return strings.Join(parts, ", ")
}

// requestProduct starts fetching the product record. The SKU comes from
// the page URL, then from fallback.
func (r *render) requestProduct(ctx context.Context, page *Page, fallback string) {
	sku, ok := product.SKUFromURL(page.URL().Path)
	if !ok || sku == "" {
		sku = fallback
	}
	switch {
	case sku == "":
		page.setProduct(async.Rejected[*model.ProductRecord](product.ErrMissingSKU))
		page.Report.AddWarning("no sku in page url or block config")
	case r.o.products == nil:
		page.setProduct(async.Rejected[*model.ProductRecord](errors.New("no product service configured")))
		page.Report.AddWarning("product " + sku + " not requested: no product service")
	default:
		page.setProduct(async.Go(ctx, func(ctx context.Context) (*model.ProductRecord, error) {
			return r.o.products.Product(ctx, sku)
		}))
	}
}

func (r *render) prewarmCategory(ctx context.Context, page *Page, category, urlPath string) {
	if category == "" || urlPath == "" || r.o.category == nil {
		return
	}
	r.o.background.Detach(ctx, "category-prewarm", func(ctx context.Context) error {
		n, err := r.o.category.PreloadCategory(ctx, category, urlPath)
		if err != nil {
			return fmt.Errorf("category %s: %w", category, err)
		}
		r.o.logger.Debug("category prewarmed", "url", page.Report.URL, "category", category, "matches", n)
		return nil
	})
}

func (r *render) preload(page *Page, hint model.PreloadHint) {
	if page.Resources.Preload(hint) {
		page.Report.AddHint(hint)
	}
}

func (r *render) preloadFile(page *Page, href, as string) {
	r.preload(page, model.PreloadHint{Href: href, As: as, CrossOrigin: "anonymous"})
}

func (r *render) preloadAll(page *Page, scripts []string) {
	for _, s := range scripts {
		r.preloadFile(page, s, model.PreloadAsScript)
	}
}

// pushPageContext queues the page and cart context records followed by a
// deferred page-view event that snapshots the data layer state once the
// runtime is active.
func (r *render) pushPageContext(_ context.Context, page *Page) error {
	page.DataLayer.Push(
		map[string]any{
			analytics.KeyPageContext: map[string]any{
				"pageType":   page.Report.PageType.String(),
				"pageName":   page.Report.Title,
				"eventType":  "visibilityHidden",
				"maxXOffset": 0,
				"maxYOffset": 0,
				"minXOffset": 0,
				"minYOffset": 0,
			},
		},
		map[string]any{
			analytics.KeyShoppingCart: map[string]any{
				"totalQuantity": 0,
			},
		},
	)
	page.DataLayer.Push(analytics.Func(func(dl *analytics.DataLayer) {
		dl.Push(map[string]any{
			analytics.KeyEvent:     analytics.EventPageView,
			analytics.KeyEventInfo: dl.State(),
		})
	}))
	return nil
}

// decorateMain decorates the main region, reveals the body and loads the
// first section, giving its first image priority.
func (r *render) decorateMain(ctx context.Context, page *Page) error {
	return page.Mutate(func(doc *goquery.Document) error {
		main := dom.Main(doc)
		if main.Length() == 0 {
			return nil
		}
		for _, res := range r.dec.DecorateMain(main) {
			if res.Err != nil {
				page.Report.AddWarning(fmt.Sprintf("auto block %s: %v", res.Name, res.Err))
			}
		}
		dom.AddBodyClass(doc, "appear")

		first := main.Find("div.section").First()
		if first.Length() == 0 {
			return nil
		}
		return r.dec.LoadSection(ctx, first, func(_ context.Context, section *goquery.Selection) error {
			dom.PrioritizeFirstImage(section)
			return nil
		})
	})
}

func (r *render) emitLCP(_ context.Context, page *Page) error {
	page.Events.Emit(events.LCP, true)
	page.Report.LCPEmitted = true
	return nil
}

func (r *render) eagerFonts(ctx context.Context, page *Page) error {
	if r.o.settings.Viewport < r.o.settings.FontThreshold && !session.Flag(page.Session, session.FontsLoaded) {
		return nil
	}
	r.loadFonts(ctx, page)
	return nil
}

// loadFonts loads the font stylesheet and remembers it in the session.
// Failures are recorded as warnings only.
func (r *render) loadFonts(ctx context.Context, page *Page) FontResult {
	if err := page.Resources.LoadCSS(ctx, r.asset(FontsCSS)); err != nil {
		page.Report.AddWarning("fonts: " + err.Error())
		return FontResult{Attempted: true, Err: err}
	}
	page.Report.MarkFontsLoaded()
	if !strings.Contains(page.URL().Hostname(), "localhost") {
		page.Session.Set(session.FontsLoaded, "true")
	}
	return FontResult{Attempted: true, Loaded: true}
}
