package lifecycle

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/storefront/internal/analytics"
	"github.com/nao1215/storefront/internal/async"
	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/events"
	"github.com/nao1215/storefront/internal/model"
	"github.com/nao1215/storefront/internal/resource"
	"github.com/nao1215/storefront/internal/session"
)

// ErrNoProduct is returned by Page.Product on pages that never requested
// a product record.
var ErrNoProduct = errors.New("page has no product")

// Page is one storefront document being rendered, together with the
// per-visit state a browser window would hold: session flags, the
// analytics data layer, the event bus and the head resources.
//
// The document is shared by goroutines started during rendering, so every
// read or write of it goes through Read or Mutate.
type Page struct {
	mu  sync.Mutex
	doc *goquery.Document
	url *url.URL

	// Report collects the outcome of rendering.
	Report *model.RenderReport

	// Session holds the visitor's session flags.
	Session session.Store

	// DataLayer receives the analytics records of the page.
	DataLayer *analytics.DataLayer

	// Events is the page event bus.
	Events *events.Bus

	// Resources queues head elements until they are flushed.
	Resources ResourceLoader

	productMu sync.Mutex
	product   *async.Future[*model.ProductRecord]
}

// PageOption configures a Page.
type PageOption func(*pageOptions)

type pageOptions struct {
	session   session.Store
	verifier  resource.Verifier
	resources ResourceLoader
	logger    *slog.Logger
}

// WithSession sets the visitor session. The default is an empty one.
func WithSession(s session.Store) PageOption {
	return func(o *pageOptions) {
		o.session = s
	}
}

// WithVerifier makes stylesheet and script loads check the resource first.
func WithVerifier(v resource.Verifier) PageOption {
	return func(o *pageOptions) {
		o.verifier = v
	}
}

// WithResources replaces the head resource loader. WithVerifier has no
// effect on a loader set this way.
func WithResources(rl ResourceLoader) PageOption {
	return func(o *pageOptions) {
		o.resources = rl
	}
}

// WithPageLogger sets the logger of the page collaborators.
func WithPageLogger(logger *slog.Logger) PageOption {
	return func(o *pageOptions) {
		o.logger = logger
	}
}

// NewPage wraps doc as the page at rawURL.
func NewPage(doc *goquery.Document, rawURL string, opts ...PageOption) (*Page, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}

	o := &pageOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.session == nil {
		o.session = session.NewMemory(nil)
	}

	if o.resources == nil {
		resOpts := []resource.Option{resource.WithLogger(o.logger)}
		if o.verifier != nil {
			resOpts = append(resOpts, resource.WithVerifier(o.verifier))
		}
		o.resources = resource.NewLoader(doc, resOpts...)
	}

	return &Page{
		doc:       doc,
		url:       u,
		Report:    model.NewRenderReport(u.String()),
		Session:   o.session,
		DataLayer: analytics.NewDataLayer(o.logger),
		Events:    events.NewBus(o.logger),
		Resources: o.resources,
	}, nil
}

// URL returns the page address.
func (p *Page) URL() *url.URL {
	u := *p.url
	return &u
}

// Fragment returns the URL fragment without the leading '#'.
func (p *Page) Fragment() string {
	return p.url.Fragment
}

// Mutate runs fn with exclusive access to the document.
func (p *Page) Mutate(fn func(doc *goquery.Document) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.doc)
}

// Read runs fn with exclusive access to the document. fn must not modify
// it.
func (p *Page) Read(fn func(doc *goquery.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// Flush writes queued head resources into the document.
func (p *Page) Flush() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Resources.Flush(p.doc)
}

func (p *Page) setProduct(f *async.Future[*model.ProductRecord]) {
	p.productMu.Lock()
	defer p.productMu.Unlock()
	p.product = f
}

// HasProduct reports whether a product record was requested for the page.
func (p *Page) HasProduct() bool {
	p.productMu.Lock()
	defer p.productMu.Unlock()
	return p.product != nil
}

// Product waits for the product record requested during the eager phase.
func (p *Page) Product(ctx context.Context) (*model.ProductRecord, error) {
	p.productMu.Lock()
	f := p.product
	p.productMu.Unlock()
	if f == nil {
		return nil, ErrNoProduct
	}
	return f.Await(ctx)
}

// HTML renders the document and records its size and sha3-256 digest in
// the report.
func (p *Page) HTML() (string, error) {
	var out string
	err := p.Mutate(func(doc *goquery.Document) error {
		p.Resources.Flush(doc)
		var err error
		out, err = dom.Render(doc)
		return err
	})
	if err != nil {
		return "", err
	}
	sum := sha3.Sum256([]byte(out))
	p.Report.ContentHash = hex.EncodeToString(sum[:])
	p.Report.Size = len(out)
	return out, nil
}
