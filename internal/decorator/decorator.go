package decorator

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
)

// AssetLoader loads the stylesheet and script belonging to a block.
// resource.Loader implements it.
type AssetLoader interface {
	LoadCSS(ctx context.Context, href string) error
	LoadScript(ctx context.Context, src string, attrs map[string]string) error
}

// BlockHandler decorates a block once its assets are loaded. It receives
// the block element only and must not touch the rest of the document.
type BlockHandler func(ctx context.Context, block *goquery.Selection) error

// Decorator applies the content transformations that turn authored markup
// into sections and blocks. All Decorate methods are idempotent: running
// them on an already decorated tree leaves it unchanged.
//
// Decorator does not synchronize document access; callers that load blocks
// from several goroutines must serialize them.
type Decorator struct {
	logger       *slog.Logger
	assets       AssetLoader
	handlers     map[string]BlockHandler
	autoBlocks   []AutoBlockBuilder
	codeBasePath string
}

// Option configures a Decorator.
type Option func(*Decorator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decorator) {
		d.logger = logger
	}
}

// WithAssetLoader sets the loader used for block stylesheets and scripts.
func WithAssetLoader(loader AssetLoader) Option {
	return func(d *Decorator) {
		d.assets = loader
	}
}

// WithBlockHandler registers a handler run when a block of the given name
// is loaded.
func WithBlockHandler(name string, h BlockHandler) Option {
	return func(d *Decorator) {
		d.handlers[name] = h
	}
}

// WithAutoBlockBuilder appends an auto-block builder. The hero builder is
// always registered first.
func WithAutoBlockBuilder(b AutoBlockBuilder) Option {
	return func(d *Decorator) {
		d.autoBlocks = append(d.autoBlocks, b)
	}
}

// WithCodeBasePath sets the prefix for block and icon asset paths.
func WithCodeBasePath(path string) Option {
	return func(d *Decorator) {
		d.codeBasePath = path
	}
}

// New creates a Decorator.
func New(opts ...Option) *Decorator {
	d := &Decorator{
		handlers:   make(map[string]BlockHandler),
		autoBlocks: []AutoBlockBuilder{HeroBuilder{}},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.assets == nil {
		d.assets = nopAssets{}
	}
	return d
}

// DecorateMain runs the full decoration sequence on the main region:
// buttons, icons, auto-blocks, sections, then blocks. Auto-block failures
// are logged and reported in the result; they never stop decoration.
func (d *Decorator) DecorateMain(main *goquery.Selection) []AutoBlockResult {
	d.DecorateButtons(main)
	d.DecorateIcons(main)
	results := d.BuildAutoBlocks(main)
	d.DecorateSections(main)
	d.DecorateBlocks(main)
	return results
}

type nopAssets struct{}

func (nopAssets) LoadCSS(context.Context, string) error { return nil }

func (nopAssets) LoadScript(context.Context, string, map[string]string) error { return nil }
