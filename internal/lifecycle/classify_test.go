package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/model"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		wantType model.PageType
		wantMark Marker
	}{
		{
			name:     "plain content",
			src:      blockPage(`<p>Hello</p>`),
			wantType: model.PageTypeCMS,
			wantMark: MarkerNone,
		},
		{
			name:     "embedded product wins over blocks",
			src:      strings.Replace(embeddedProductPage, `<h1>Bag</h1>`, `<h1>Bag</h1><div class="commerce-cart"></div>`, 1),
			wantType: model.PageTypeProduct,
			wantMark: MarkerEmbeddedProduct,
		},
		{
			name:     "product type without sku is not embedded",
			src:      `<html><head><meta property="og:type" content="product"></head><body><main></main></body></html>`,
			wantType: model.PageTypeCMS,
			wantMark: MarkerNone,
		},
		{
			name:     "product details block",
			src:      blockPage(`<div class="product-details"></div>`),
			wantType: model.PageTypeProduct,
			wantMark: MarkerProductDetails,
		},
		{
			name:     "custom product details block",
			src:      blockPage(`<div class="product-details-custom"></div>`),
			wantType: model.PageTypeProduct,
			wantMark: MarkerCustomProduct,
		},
		{
			name:     "product list",
			src:      blockPage(`<div class="product-list-page"></div>`),
			wantType: model.PageTypeCategory,
			wantMark: MarkerProductList,
		},
		{
			name:     "custom product list",
			src:      blockPage(`<div class="product-list-page-custom"></div>`),
			wantType: model.PageTypeCategory,
			wantMark: MarkerCustomList,
		},
		{
			name:     "cart",
			src:      blockPage(`<div class="commerce-cart"></div>`),
			wantType: model.PageTypeCart,
			wantMark: MarkerCart,
		},
		{
			name:     "checkout",
			src:      blockPage(`<div class="commerce-checkout"></div>`),
			wantType: model.PageTypeCheckout,
			wantMark: MarkerCheckout,
		},
		{
			name:     "markers outside main are ignored",
			src:      `<html><body><header><div class="commerce-cart"></div></header><main></main></body></html>`,
			wantType: model.PageTypeCMS,
			wantMark: MarkerNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := dom.ParseString(tt.src)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			gotType, gotMark := Classify(doc)
			if gotType != tt.wantType || gotMark != tt.wantMark {
				t.Errorf("got (%v, %q), want (%v, %q)", gotType, gotMark, tt.wantType, tt.wantMark)
			}
		})
	}
}

func TestAudiences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		viewport int
		want     string
	}{
		{viewport: 320, want: "mobile"},
		{viewport: 599, want: "mobile"},
		{viewport: 600, want: "desktop"},
		{viewport: 1920, want: "desktop"},
	}
	for _, tt := range tests {
		opts := PluginOptions{Audiences: Audiences(600), Viewport: tt.viewport}
		got := opts.ActiveAudiences()
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("viewport %d: got %v, want [%s]", tt.viewport, got, tt.want)
		}
	}
}

func TestHasExperimentSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head string
		want bool
	}{
		{name: "none", head: `<title>x</title>`, want: false},
		{name: "experiment", head: `<meta name="experiment" content="hero">`, want: true},
		{name: "campaign scope", head: `<meta name="campaign-spring" content="/spring">`, want: true},
		{name: "audience scope", head: `<meta property="audience:mobile" content="/m">`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := dom.ParseString(`<html><head>` + tt.head + `</head><body></body></html>`)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := hasExperimentSignals(doc); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsent(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	if !Consent(logger, consentTopic) {
		t.Error("consent should be assumed")
	}
	if !strings.Contains(buf.String(), consentTopic) {
		t.Errorf("expected a warning naming the topic, got %q", buf.String())
	}
}

func TestPage(t *testing.T) {
	t.Parallel()

	t.Run("rejects nil document and bad url", func(t *testing.T) {
		t.Parallel()
		if _, err := NewPage(nil, "https://shop.example.com/"); err == nil {
			t.Error("expected error for nil document")
		}
		doc, _ := dom.ParseString("<html></html>")
		if _, err := NewPage(doc, "://bad"); err == nil {
			t.Error("expected error for invalid url")
		}
	})

	t.Run("product without request", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, "<html></html>", "https://shop.example.com/#top")
		if page.Fragment() != "top" {
			t.Errorf("got fragment %q", page.Fragment())
		}
		if page.HasProduct() {
			t.Error("no product was requested")
		}
		if _, err := page.Product(context.Background()); !errors.Is(err, ErrNoProduct) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("html flushes resources and hashes content", func(t *testing.T) {
		t.Parallel()
		page := newTestPage(t, "<html><head></head><body></body></html>", "https://shop.example.com/")
		page.Resources.PreloadFile("/scripts/a.js", model.PreloadAsScript)

		out, err := page.HTML()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `href="/scripts/a.js"`) {
			t.Errorf("queued preload missing: %s", out)
		}
		if page.Report.Size != len(out) || len(page.Report.ContentHash) != 64 {
			t.Errorf("got size %d hash %q", page.Report.Size, page.Report.ContentHash)
		}

		first := page.Report.ContentHash
		if _, err := page.HTML(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Report.ContentHash != first {
			t.Error("rendering twice should give the same hash")
		}
	})
}

func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	sources := map[string]string{
		"home": cmsPage,
		"cart": blockPage(`<div class="commerce-cart"></div>`),
	}
	factory := func(_ context.Context, target string) (*Page, error) {
		src, ok := sources[target]
		if !ok {
			return nil, errors.New("no such page")
		}
		doc, err := dom.ParseString(src)
		if err != nil {
			return nil, err
		}
		return NewPage(doc, "https://shop.example.com/"+target, WithPageLogger(discardLogger()))
	}
	o := newTestOrchestrator()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("keeps target order", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(o, factory, WithBatchLogger(logger), WithConcurrency(2))
		pages, reports, err := bp.ProcessBatch(context.Background(), []string{"home", "missing", "cart"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 3 || len(reports) != 3 {
			t.Fatalf("got %d pages, %d reports", len(pages), len(reports))
		}
		if reports[0].PageType != model.PageTypeCMS || reports[2].PageType != model.PageTypeCart {
			t.Errorf("got types %v, %v", reports[0].PageType, reports[2].PageType)
		}
		if pages[1] != nil || reports[1].Error != "no such page" {
			t.Errorf("got page %v, error %q", pages[1], reports[1].Error)
		}
		if reports[1].URL != "missing" {
			t.Errorf("got url %q", reports[1].URL)
		}
	})

	t.Run("callback sees every target", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(o, factory, WithBatchLogger(logger))
		seen := make(chan int, 2)
		err := bp.ProcessBatchWithCallback(context.Background(), []string{"home", "cart"},
			func(_ *Page, _ *model.RenderReport, i int) { seen <- i })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(seen)
		var sum int
		for i := range seen {
			sum += i
		}
		if sum != 1 {
			t.Errorf("got index sum %d", sum)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(o, factory, WithConcurrency(0))
		if bp.concurrency != 4 {
			t.Errorf("got %d", bp.concurrency)
		}
	})
}
