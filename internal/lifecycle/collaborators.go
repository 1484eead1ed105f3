package lifecycle

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/model"
)

// ResourceLoader is what the lifecycle needs from a head resource loader.
// resource.Loader implements it.
type ResourceLoader interface {
	Preload(hint model.PreloadHint) bool
	PreloadFile(href, as string) bool
	LoadCSS(ctx context.Context, href string) error
	LoadScript(ctx context.Context, src string, attrs map[string]string) error

	// Flush writes the queued elements into doc and returns how many.
	Flush(doc *goquery.Document) int
}

// DropinInitializer prepares the third-party rendering runtime before any
// block is decorated.
type DropinInitializer interface {
	Initialize(ctx context.Context, page *Page) error
}

// DropinFunc adapts a function to DropinInitializer.
type DropinFunc func(ctx context.Context, page *Page) error

// Initialize implements DropinInitializer.
func (f DropinFunc) Initialize(ctx context.Context, page *Page) error {
	return f(ctx, page)
}

// CategoryPreloader warms listing data for a category page.
// index.Prewarmer implements it.
type CategoryPreloader interface {
	PreloadCategory(ctx context.Context, categoryID, urlPath string) (int, error)
}

// DelayedLoader runs the work of the delayed phase.
type DelayedLoader interface {
	LoadDelayed(ctx context.Context, page *Page) error
}

// DelayedFunc adapts a function to DelayedLoader.
type DelayedFunc func(ctx context.Context, page *Page) error

// LoadDelayed implements DelayedLoader.
func (f DelayedFunc) LoadDelayed(ctx context.Context, page *Page) error {
	return f(ctx, page)
}

// Audience decides from the viewport width whether a visitor belongs to an
// audience.
type Audience func(viewport int) bool

// Audiences returns the built-in mobile and desktop audiences split at
// breakpoint.
func Audiences(breakpoint int) map[string]Audience {
	return map[string]Audience{
		"mobile":  func(w int) bool { return w < breakpoint },
		"desktop": func(w int) bool { return w >= breakpoint },
	}
}

// PluginOptions is passed to the experimentation plugin.
type PluginOptions struct {
	Audiences map[string]Audience
	Viewport  int
}

// ActiveAudiences returns the sorted names of the audiences the viewport
// belongs to.
func (o PluginOptions) ActiveAudiences() []string {
	var active []string
	for _, name := range slices.Sorted(maps.Keys(o.Audiences)) {
		if o.Audiences[name](o.Viewport) {
			active = append(active, name)
		}
	}
	return active
}

// PluginContext exposes page helpers to the experimentation plugin.
type PluginContext struct {
	Metadata    func(name string) string
	AllMetadata func(scope string) map[string]string
	LoadCSS     func(ctx context.Context, href string) error
	LoadScript  func(ctx context.Context, src string, attrs map[string]string) error
	ToClassName func(s string) string
	ToCamelCase func(s string) string
}

// newPluginContext binds the helpers to page. The metadata readers take
// the page lock, so the plugin must not be called while holding it.
func newPluginContext(page *Page) PluginContext {
	return PluginContext{
		Metadata: func(name string) string {
			var v string
			page.Read(func(doc *goquery.Document) { v = dom.Metadata(doc, name) })
			return v
		},
		AllMetadata: func(scope string) map[string]string {
			var v map[string]string
			page.Read(func(doc *goquery.Document) { v = dom.AllMetadata(doc, scope) })
			return v
		},
		LoadCSS:     page.Resources.LoadCSS,
		LoadScript:  page.Resources.LoadScript,
		ToClassName: dom.ToClassName,
		ToCamelCase: dom.ToCamelCase,
	}
}

// ExperimentationPlugin runs experiments, campaigns and audience
// targeting. It is only called on pages whose metadata asks for it.
type ExperimentationPlugin interface {
	Eager(ctx context.Context, page *Page, opts PluginOptions, pc PluginContext) error
	Lazy(ctx context.Context, page *Page, opts PluginOptions, pc PluginContext) error
}

// hasExperimentSignals reports whether the document asks for the
// experimentation plugin.
func hasExperimentSignals(doc *goquery.Document) bool {
	return dom.Metadata(doc, "experiment") != "" ||
		dom.HasMetadataScope(doc, "campaign") ||
		dom.HasMetadataScope(doc, "audience")
}

// Consent reports whether the visitor agreed to topic. No consent
// management is integrated yet, so it always agrees and says so.
func Consent(logger *slog.Logger, topic string) bool {
	logger.Warn("consent management not configured, assuming consent", "topic", topic)
	return true
}
