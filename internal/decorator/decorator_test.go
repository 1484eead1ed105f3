package decorator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/dom"
)

const testMain = `<html><head>
<meta name="template" content="Product Page">
<meta name="theme" content="dark, Holiday Sale">
</head><body><header></header><main>
  <div>
    <picture><img src="/hero.jpg"></picture>
    <h1>Welcome</h1>
    <p>Intro text</p>
    <p><a href="/shop">Shop now</a></p>
    <p><strong><a href="/buy">Buy</a></strong></p>
    <p><em><a href="/learn">Learn</a></em></p>
    <p><a href="https://x.test/">https://x.test/</a></p>
    <p>Call <span class="icon icon-phone"></span> us</p>
  </div>
  <div>
    <p>Before</p>
    <div class="cards"><div><div>one</div></div></div>
    <p>After</p>
    <div class="section-metadata">
      <div><div>Style</div><div>Highlight, Dark Mode</div></div>
      <div><div>Anchor</div><div>deals</div></div>
    </div>
  </div>
</main><footer></footer></body></html>`

func newTestDecorator(opts ...Option) *Decorator {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(opts...)
}

func parse(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	return doc
}

func render(t *testing.T, doc *goquery.Document) string {
	t.Helper()
	out, err := dom.Render(doc)
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	return out
}

// TestDecorateMainIdempotent tests that a second decoration pass changes
// nothing.
func TestDecorateMainIdempotent(t *testing.T) {
	t.Parallel()

	doc := parse(t, testMain)
	d := newTestDecorator()

	d.DecorateMain(dom.Main(doc))
	first := render(t, doc)

	d.DecorateMain(dom.Main(doc))
	second := render(t, doc)

	if first != second {
		t.Errorf("second pass changed the document:\nfirst:  %s\nsecond: %s", first, second)
	}
	if n := doc.Find(".hero").Length(); n != 1 {
		t.Errorf("got %d hero blocks, expected 1", n)
	}
	if n := doc.Find("span.icon img").Length(); n != 1 {
		t.Errorf("got %d icon images, expected 1", n)
	}
}

// TestHeroBuilder tests hero synthesis.
func TestHeroBuilder(t *testing.T) {
	t.Parallel()

	t.Run("picture before heading builds hero", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, testMain)
		built, err := HeroBuilder{}.Build(dom.Main(doc))
		if err != nil || !built {
			t.Fatalf("got built=%v err=%v", built, err)
		}
		first := dom.Main(doc).Children().First()
		if first.Find(".hero picture").Length() != 1 || first.Find(".hero h1").Length() != 1 {
			t.Error("expected picture and h1 inside the first section's hero block")
		}
	})

	t.Run("heading before picture is left alone", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, `<main><div><h1>Title</h1><picture><img src="/a.jpg"></picture></div></main>`)
		built, err := HeroBuilder{}.Build(dom.Main(doc))
		if err != nil || built {
			t.Fatalf("got built=%v err=%v", built, err)
		}
		if doc.Find(".hero").Length() != 0 {
			t.Error("expected no hero")
		}
	})

	t.Run("missing picture is left alone", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, `<main><div><h1>Title</h1></div></main>`)
		if built, _ := (HeroBuilder{}).Build(dom.Main(doc)); built {
			t.Error("expected no hero")
		}
	})
}

type failingBuilder struct{ panics bool }

func (failingBuilder) Name() string { return "broken" }

func (f failingBuilder) Build(*goquery.Selection) (bool, error) {
	if f.panics {
		panic("boom")
	}
	return false, errors.New("cannot build")
}

// TestBuildAutoBlocksFailure tests that a failing builder does not stop
// decoration.
func TestBuildAutoBlocksFailure(t *testing.T) {
	t.Parallel()

	for _, panics := range []bool{false, true} {
		name := "error"
		if panics {
			name = "panic"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc := parse(t, testMain)
			d := newTestDecorator(WithAutoBlockBuilder(failingBuilder{panics: panics}))

			results := d.DecorateMain(dom.Main(doc))
			if len(results) != 2 {
				t.Fatalf("got %d results, expected 2", len(results))
			}
			if results[0].Name != "hero" || !results[0].Built {
				t.Errorf("unexpected hero result: %+v", results[0])
			}
			if results[1].Err == nil {
				t.Error("expected builder error to be recorded")
			}
			if doc.Find("div.section").Length() == 0 {
				t.Error("expected sections to be decorated after the failure")
			}
		})
	}
}

// TestDecorateButtons tests button classification.
func TestDecorateButtons(t *testing.T) {
	t.Parallel()

	doc := parse(t, testMain)
	newTestDecorator().DecorateButtons(dom.Main(doc))

	tests := []struct {
		href  string
		class string
	}{
		{"/shop", "button"},
		{"/buy", "button primary"},
		{"/learn", "button secondary"},
		{"https://x.test/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()
			a := doc.Find(`a[href="` + tt.href + `"]`)
			if got := a.AttrOr("class", ""); got != tt.class {
				t.Errorf("got class %q, expected %q", got, tt.class)
			}
		})
	}

	if n := doc.Find("p.button-container").Length(); n != 3 {
		t.Errorf("got %d button containers, expected 3", n)
	}
}

// TestDecorateSections tests section partitioning and metadata.
func TestDecorateSections(t *testing.T) {
	t.Parallel()

	doc := parse(t, testMain)
	main := dom.Main(doc)
	d := newTestDecorator()
	d.DecorateSections(main)

	sections := main.ChildrenFiltered("div.section")
	if sections.Length() != 2 {
		t.Fatalf("got %d sections, expected 2", sections.Length())
	}

	second := sections.Eq(1)
	wrappers := second.Children()
	if wrappers.Length() != 3 {
		t.Fatalf("got %d wrappers, expected 3: %s", wrappers.Length(), render(t, doc))
	}
	if !wrappers.Eq(0).HasClass("default-content-wrapper") ||
		wrappers.Eq(1).HasClass("default-content-wrapper") ||
		!wrappers.Eq(2).HasClass("default-content-wrapper") {
		t.Error("unexpected wrapper classes")
	}
	if !second.HasClass("highlight") || !second.HasClass("dark-mode") {
		t.Errorf("expected style classes, got %q", second.AttrOr("class", ""))
	}
	if second.AttrOr("data-anchor", "") != "deals" {
		t.Error("expected data-anchor from section metadata")
	}
	if second.Find(".section-metadata").Length() != 0 {
		t.Error("expected section metadata to be removed")
	}
	if SectionStatus(second) != StatusInitialized {
		t.Errorf("got status %q", SectionStatus(second))
	}
}

// TestDecorateBlocks tests block marking.
func TestDecorateBlocks(t *testing.T) {
	t.Parallel()

	doc := parse(t, testMain)
	main := dom.Main(doc)
	d := newTestDecorator()
	d.DecorateSections(main)
	d.DecorateBlocks(main)

	cards := doc.Find("div.cards")
	if !cards.HasClass("block") {
		t.Error("expected block class")
	}
	if cards.AttrOr("data-block-name", "") != "cards" {
		t.Error("expected data-block-name")
	}
	if BlockStatus(cards) != StatusInitialized {
		t.Errorf("got status %q", BlockStatus(cards))
	}
	if !cards.Parent().HasClass("cards-wrapper") {
		t.Error("expected wrapper class")
	}
	if !cards.Closest(".section").HasClass("cards-container") {
		t.Error("expected container class")
	}
}

// TestDecorateTemplateAndTheme tests body classes from metadata.
func TestDecorateTemplateAndTheme(t *testing.T) {
	t.Parallel()

	doc := parse(t, testMain)
	added := newTestDecorator().DecorateTemplateAndTheme(doc)

	expected := []string{"product-page", "dark", "holiday-sale"}
	if strings.Join(added, ",") != strings.Join(expected, ",") {
		t.Errorf("got %v, expected %v", added, expected)
	}
	for _, c := range expected {
		if !doc.Find("body").HasClass(c) {
			t.Errorf("expected body class %q", c)
		}
	}
}

type recordingAssets struct {
	mu      sync.Mutex
	loaded  []string
	failCSS bool
}

func (r *recordingAssets) LoadCSS(_ context.Context, href string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCSS {
		return errors.New("404")
	}
	r.loaded = append(r.loaded, href)
	return nil
}

func (r *recordingAssets) LoadScript(_ context.Context, src string, _ map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = append(r.loaded, src)
	return nil
}

// TestLoadSection tests section and block loading.
func TestLoadSection(t *testing.T) {
	t.Parallel()

	t.Run("loads blocks and reveals the section", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, testMain)
		assets := &recordingAssets{}
		handled := 0
		d := newTestDecorator(
			WithAssetLoader(assets),
			WithBlockHandler("cards", func(_ context.Context, block *goquery.Selection) error {
				handled++
				block.SetAttr("data-cards", "ready")
				return nil
			}),
		)
		d.DecorateMain(dom.Main(doc))

		called := false
		cb := func(_ context.Context, _ *goquery.Selection) error {
			called = true
			return nil
		}
		sections := doc.Find("div.section")
		for i := range sections.Length() {
			if err := d.LoadSection(context.Background(), sections.Eq(i), cb); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if err := d.LoadSections(context.Background(), dom.Main(doc)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !called {
			t.Error("expected callback to run")
		}
		if handled != 1 {
			t.Errorf("handler ran %d times, expected 1", handled)
		}
		if doc.Find(".cards").AttrOr("data-cards", "") != "ready" {
			t.Error("expected handler to decorate the block")
		}
		if sections.Filter("[style]").Length() != 0 {
			t.Error("expected sections to be revealed")
		}
		joined := strings.Join(assets.loaded, " ")
		if !strings.Contains(joined, "/blocks/cards/cards.css") || !strings.Contains(joined, "/blocks/cards/cards.js") {
			t.Errorf("unexpected assets: %v", assets.loaded)
		}
	})

	t.Run("asset failure still marks block loaded", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, testMain)
		d := newTestDecorator(WithAssetLoader(&recordingAssets{failCSS: true}))
		d.DecorateMain(dom.Main(doc))

		if err := d.LoadSections(context.Background(), dom.Main(doc)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if BlockStatus(doc.Find(".cards")) != StatusLoaded {
			t.Error("expected block to be loaded")
		}
	})

	t.Run("cancelled context stops loading", func(t *testing.T) {
		t.Parallel()
		doc := parse(t, testMain)
		d := newTestDecorator()
		d.DecorateMain(dom.Main(doc))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := d.LoadSection(ctx, doc.Find("div.section").Eq(1), nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, expected context.Canceled", err)
		}
	})
}

// TestLoadHeaderFooter tests chrome block loading.
func TestLoadHeaderFooter(t *testing.T) {
	t.Parallel()

	doc := parse(t, testMain)
	assets := &recordingAssets{}
	d := newTestDecorator(WithAssetLoader(assets), WithCodeBasePath("/base"))

	if err := d.LoadHeader(context.Background(), doc.Find("header")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.LoadFooter(context.Background(), doc.Find("footer")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.LoadHeader(context.Background(), doc.Find("header")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := doc.Find("header div.header.block").Length(); n != 1 {
		t.Errorf("got %d header blocks, expected 1", n)
	}
	if BlockStatus(doc.Find("footer .footer")) != StatusLoaded {
		t.Error("expected footer block loaded")
	}
	if len(assets.loaded) != 4 || assets.loaded[0] != "/base/blocks/header/header.css" {
		t.Errorf("unexpected assets: %v", assets.loaded)
	}

	missing := parse(t, `<html><body></body></html>`)
	if err := d.LoadHeader(context.Background(), missing.Find("header")); err == nil {
		t.Error("expected error without <header>")
	}
}
