package resource

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"

	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/model"
)

// Kind is the type of head element a resource becomes.
type Kind string

// Resource kinds.
const (
	KindPreload    Kind = "preload"
	KindStylesheet Kind = "stylesheet"
	KindScript     Kind = "script"
)

// Verifier checks that a resource exists before it is referenced.
// httpclient.Client implements it with a HEAD request.
type Verifier interface {
	Head(ctx context.Context, ref string) error
}

// Loader adds preload hints, stylesheets and scripts to a document head.
//
// Loader never touches the document while loads are in flight: elements
// are queued and written by Flush, which the caller runs while it holds
// the document. A resource already present in the head, or already
// queued, is not added again.
type Loader struct {
	verifier Verifier
	logger   *slog.Logger
	group    singleflight.Group

	mu     sync.Mutex
	seen   map[string]bool
	queue  []*html.Node
	hints  []model.PreloadHint
	loaded []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithVerifier makes LoadCSS and LoadScript fail for resources the
// verifier rejects.
func WithVerifier(v Verifier) Option {
	return func(l *Loader) {
		l.verifier = v
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader for doc. The existing head is read once to
// learn which resources are already referenced.
func NewLoader(doc *goquery.Document, opts ...Option) *Loader {
	l := &Loader{seen: make(map[string]bool)}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if doc != nil {
		doc.Find(`head link[rel="stylesheet"][href]`).Each(func(_ int, s *goquery.Selection) {
			l.seen[key(KindStylesheet, s.AttrOr("href", ""))] = true
		})
		doc.Find(`head link[rel="preload"][href]`).Each(func(_ int, s *goquery.Selection) {
			l.seen[key(KindPreload, s.AttrOr("href", ""))] = true
		})
		doc.Find(`script[src]`).Each(func(_ int, s *goquery.Selection) {
			l.seen[key(KindScript, s.AttrOr("src", ""))] = true
		})
	}
	return l
}

func key(k Kind, href string) string {
	return string(k) + "|" + href
}

// Preload queues a <link rel="preload">. It returns false when the same
// href was already preloaded.
func (l *Loader) Preload(hint model.PreloadHint) bool {
	k := key(KindPreload, hint.Href)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[k] {
		return false
	}
	l.seen[k] = true

	attrs := []html.Attribute{
		{Key: "rel", Val: "preload"},
		{Key: "as", Val: hint.As},
		{Key: "href", Val: hint.Href},
	}
	if hint.CrossOrigin != "" {
		attrs = append(attrs, html.Attribute{Key: "crossorigin", Val: hint.CrossOrigin})
	}
	if hint.ImageSrcSet != "" {
		attrs = append(attrs, html.Attribute{Key: "imagesrcset", Val: hint.ImageSrcSet})
	}
	l.queue = append(l.queue, dom.NewElement("link", attrs...))
	l.hints = append(l.hints, hint)
	return true
}

// PreloadFile queues a crossorigin preload for href.
func (l *Loader) PreloadFile(href, as string) bool {
	return l.Preload(model.PreloadHint{Href: href, As: as, CrossOrigin: "anonymous"})
}

// LoadCSS queues a stylesheet link. Loading an already referenced
// stylesheet succeeds without adding anything.
func (l *Loader) LoadCSS(ctx context.Context, href string) error {
	return l.load(ctx, KindStylesheet, href, func() *html.Node {
		return dom.NewElement("link",
			html.Attribute{Key: "rel", Val: "stylesheet"},
			html.Attribute{Key: "href", Val: href},
		)
	})
}

// LoadScript queues a script element with the given extra attributes.
func (l *Loader) LoadScript(ctx context.Context, src string, attrs map[string]string) error {
	return l.load(ctx, KindScript, src, func() *html.Node {
		n := dom.NewElement("script", html.Attribute{Key: "src", Val: src})
		for _, k := range slices.Sorted(maps.Keys(attrs)) {
			dom.SetAttr(n, k, attrs[k])
		}
		return n
	})
}

func (l *Loader) load(ctx context.Context, kind Kind, href string, build func() *html.Node) error {
	k := key(kind, href)
	if l.isSeen(k) {
		return nil
	}

	_, err, _ := l.group.Do(k, func() (any, error) {
		if l.isSeen(k) {
			return nil, nil
		}
		if l.verifier != nil {
			if err := l.verifier.Head(ctx, href); err != nil {
				return nil, fmt.Errorf("failed to load %s %s: %w", kind, href, err)
			}
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		l.seen[k] = true
		l.queue = append(l.queue, build())
		l.loaded = append(l.loaded, href)
		return nil, nil
	})
	if err != nil {
		l.logger.Debug("resource rejected", "kind", string(kind), "href", href, "error", err)
	}
	return err
}

func (l *Loader) isSeen(k string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[k]
}

// Flush appends every queued element to the head of doc and returns how
// many were written. The caller must hold doc.
func (l *Loader) Flush(doc *goquery.Document) int {
	l.mu.Lock()
	queue := l.queue
	l.queue = nil
	l.mu.Unlock()

	head := dom.Head(doc)
	if head == nil {
		return 0
	}
	for _, n := range queue {
		dom.Append(head, n)
	}
	return len(queue)
}

// Hints returns the preload hints queued so far, in order.
func (l *Loader) Hints() []model.PreloadHint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.hints)
}

// Loaded returns the stylesheets and scripts queued so far, in order.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.loaded)
}

// Has reports whether href of the given kind is referenced or queued.
func (l *Loader) Has(kind Kind, href string) bool {
	return l.isSeen(key(kind, href))
}
