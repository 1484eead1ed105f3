package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/storefront/internal/analytics"
	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/model"
	"github.com/nao1215/storefront/internal/session"
)

// consentTopic gates the view history.
const consentTopic = "commerce-recommendations"

func (r *render) lazyPipeline() *Pipeline {
	p := NewPipeline(PhaseLazy,
		WithPipelineLogger(r.o.logger),
		WithContinueOnError(true),
	)
	p.AddSteps(
		NewStep("sections", r.loadSections),
		NewStep("scroll-target", r.scrollTarget),
		NewStep("chrome", r.loadChrome),
		NewStep("acdl-debug", r.debugValidator),
		NewStep("history", r.trackHistory),
		NewStep("experimentation", r.experimentLazy),
		NewStep("product", r.resolveProduct),
	)
	return p
}

func (r *render) loadSections(ctx context.Context, page *Page) error {
	return page.Mutate(func(doc *goquery.Document) error {
		main := dom.Main(doc)
		if main.Length() == 0 {
			return nil
		}
		return r.dec.LoadSections(ctx, main)
	})
}

// scrollTarget records the element the URL fragment points at.
func (r *render) scrollTarget(_ context.Context, page *Page) error {
	fragment := page.Fragment()
	if fragment == "" {
		return nil
	}
	page.Read(func(doc *goquery.Document) {
		if dom.FindByID(doc, fragment).Length() > 0 {
			page.Report.ScrollTarget = fragment
		}
	})
	return nil
}

// loadChrome loads header, footer, lazy styles, fonts and the data layer
// runtime concurrently. Header and footer take turns on the document; the
// other loads only queue head elements.
func (r *render) loadChrome(ctx context.Context, page *Page) error {
	var g errgroup.Group

	g.Go(func() error {
		return page.Mutate(func(doc *goquery.Document) error {
			return r.dec.LoadHeader(ctx, doc.Find("header").First())
		})
	})
	g.Go(func() error {
		return page.Mutate(func(doc *goquery.Document) error {
			return r.dec.LoadFooter(ctx, doc.Find("footer").First())
		})
	})
	g.Go(func() error {
		return page.Resources.LoadCSS(ctx, r.asset(LazyStylesCSS))
	})
	g.Go(func() error {
		r.loadFonts(ctx, page)
		return nil
	})
	g.Go(func() error {
		if err := page.Resources.LoadScript(ctx, r.asset(DataLayerScript), nil); err != nil {
			return fmt.Errorf("data layer runtime: %w", err)
		}
		page.DataLayer.Activate()
		return nil
	})

	return g.Wait()
}

// debugValidator loads the data layer validator in the background when the
// session asks for it.
func (r *render) debugValidator(ctx context.Context, page *Page) error {
	if !session.Flag(page.Session, session.ACDLDebug) {
		return nil
	}
	r.o.background.Detach(ctx, "acdl-validator", func(ctx context.Context) error {
		if err := page.Resources.LoadScript(ctx, r.asset(ValidatorScript), nil); err != nil {
			return err
		}
		page.Flush()
		return nil
	})
	return nil
}

func (r *render) trackHistory(_ context.Context, page *Page) error {
	if !Consent(r.o.logger, consentTopic) {
		return nil
	}
	analytics.NewHistoryTracker(page.Session,
		analytics.WithStoreView(r.o.settings.StoreView),
		analytics.WithHistoryLogger(r.o.logger),
	).Track(page.DataLayer)
	return nil
}

func (r *render) experimentLazy(ctx context.Context, page *Page) error {
	if r.o.experiment == nil || !r.experimentSignals(page) {
		return nil
	}
	if err := r.o.experiment.Lazy(ctx, page, r.plugin, newPluginContext(page)); err != nil {
		r.o.logger.Warn("experimentation lazy hook failed", "url", page.Report.URL, "error", err)
	}
	return nil
}

// resolveProduct waits for the product record of a product page, stores it
// in the report and announces it to the data layer. A failed request
// surfaces here as the step error.
func (r *render) resolveProduct(ctx context.Context, page *Page) error {
	if !page.HasProduct() {
		return nil
	}
	p, err := page.Product(ctx)
	if err != nil {
		if errors.Is(err, ErrNoProduct) {
			return nil
		}
		return fmt.Errorf("failed to resolve product: %w", err)
	}
	page.Report.Product = p
	page.DataLayer.Push(map[string]any{
		analytics.KeyProductContext: map[string]any{
			"sku":  p.SKU,
			"name": p.Name,
		},
	})
	return nil
}

// scheduleDelayed runs the delayed phase in the background once the
// configured delay has passed.
func (r *render) scheduleDelayed(ctx context.Context) {
	page := r.page
	r.o.background.After(ctx, PhaseDelayed, r.o.settings.DelayedAfter, func(ctx context.Context) error {
		start := time.Now()
		result := model.PhaseResult{Name: PhaseDelayed, Steps: []string{"delayed"}}
		var err error
		if r.o.delayed != nil {
			err = r.o.delayed.LoadDelayed(ctx, page)
		} else {
			err = page.Resources.LoadScript(ctx, r.asset(DelayedScript), nil)
		}
		if err != nil {
			result.Errors = []string{"delayed: " + err.Error()}
		}
		page.Flush()
		result.Duration = time.Since(start)
		page.Report.AddPhase(result)
		return err
	})
}
