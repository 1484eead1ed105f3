package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PhaseResult records how one lifecycle phase went.
type PhaseResult struct {
	// Name is the phase name: "eager", "lazy" or "delayed".
	Name string `json:"name"`

	// Steps lists the step names in execution order.
	Steps []string `json:"steps"`

	// Duration is the wall time the phase took.
	Duration time.Duration `json:"duration"`

	// Errors holds the messages of steps that failed without aborting the phase.
	Errors []string `json:"errors,omitempty"`
}

// Failed reports whether any step in the phase returned an error.
func (p PhaseResult) Failed() bool {
	return len(p.Errors) > 0
}

// RenderReport is the outcome of rendering one storefront page.
//
// Steps running on background goroutines append hints and warnings, so
// those two slices are only modified through the Add methods.
type RenderReport struct {
	mu sync.Mutex

	// ID uniquely identifies this render.
	ID string `json:"id"`

	// URL is the page address the document was rendered for.
	URL string `json:"url"`

	// PageType is the classification derived during the eager phase.
	PageType PageType `json:"page_type"`

	// Language is the document language set during the eager phase.
	Language string `json:"language"`

	// Title is the document title, used as the analytics page name.
	Title string `json:"title"`

	// Hints lists the preload hints pushed into the document head.
	Hints []PreloadHint `json:"hints"`

	// Analytics holds the data layer entries pushed during rendering.
	Analytics []map[string]any `json:"analytics"`

	// LCPEmitted is true once the largest-content-ready signal was sent.
	LCPEmitted bool `json:"lcp_emitted"`

	// FontsLoaded is true if the font stylesheet was loaded in any phase.
	FontsLoaded bool `json:"fonts_loaded"`

	// ScrollTarget is the element id matched by the URL fragment, if any.
	ScrollTarget string `json:"scroll_target,omitempty"`

	// Experiment is true when the experimentation plugin was triggered.
	Experiment bool `json:"experiment"`

	// Phases records each lifecycle phase in order.
	Phases []PhaseResult `json:"phases"`

	// Warnings collects non-fatal problems such as swallowed font failures.
	Warnings []string `json:"warnings,omitempty"`

	// Product is the resolved product record for product pages.
	Product *ProductRecord `json:"product,omitempty"`

	// ContentHash is the hex sha3-256 digest of the rendered HTML.
	ContentHash string `json:"content_hash"`

	// Size is the length of the rendered HTML in bytes.
	Size int `json:"size"`

	// RenderedAt is when rendering started.
	RenderedAt time.Time `json:"rendered_at"`

	// Error is the message of a failure that stopped rendering, if any.
	Error string `json:"error,omitempty"`
}

// NewRenderReport creates a report for the given page URL.
func NewRenderReport(url string) *RenderReport {
	return &RenderReport{
		ID:         uuid.NewString(),
		URL:        url,
		PageType:   PageTypeCMS,
		Hints:      []PreloadHint{},
		Analytics:  []map[string]any{},
		Phases:     []PhaseResult{},
		RenderedAt: time.Now(),
	}
}

// AddHint records a preload hint.
func (r *RenderReport) AddHint(h PreloadHint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Hints = append(r.Hints, h)
}

// AddWarning records a non-fatal problem.
func (r *RenderReport) AddWarning(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, msg)
}

// AddPhase records a finished lifecycle phase.
func (r *RenderReport) AddPhase(p PhaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phases = append(r.Phases, p)
}

// MarkFontsLoaded records that the font stylesheet was loaded.
func (r *RenderReport) MarkFontsLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FontsLoaded = true
}

// HintCount returns the number of recorded preload hints.
func (r *RenderReport) HintCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Hints)
}

// Phase returns the recorded phase with the given name.
func (r *RenderReport) Phase(name string) (PhaseResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

// HasErrors reports whether rendering failed or any phase had step errors.
func (r *RenderReport) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Error != "" {
		return true
	}
	for _, p := range r.Phases {
		if p.Failed() {
			return true
		}
	}
	return false
}
