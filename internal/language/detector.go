// Package language resolves the document language when the configuration
// asks for "auto" instead of a fixed code.
package language

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pemistahl/lingua-go"

	"github.com/nao1215/storefront/internal/dom"
)

// Auto is the configuration value that enables detection.
const Auto = "auto"

// DefaultFallback is used when detection is inconclusive.
const DefaultFallback = "en"

// minTextLength is the shortest text worth running detection on.
const minTextLength = 40

// storefrontLanguages are the languages commerce storefronts are commonly
// published in. Restricting the set keeps detection fast and stable.
var storefrontLanguages = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Japanese,
}

// Detector guesses the ISO 639-1 code of a page's content.
type Detector struct {
	detector lingua.LanguageDetector
	fallback string
	logger   *slog.Logger
}

// NewDetector builds a detector. An empty fallback uses DefaultFallback.
func NewDetector(fallback string, logger *slog.Logger) *Detector {
	if fallback == "" || fallback == Auto {
		fallback = DefaultFallback
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(storefrontLanguages...).
			WithMinimumRelativeDistance(0.1).
			Build(),
		fallback: fallback,
		logger:   logger,
	}
}

// Detect returns the language code of text, or the fallback.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minTextLength {
		return d.fallback
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return d.fallback
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// DetectDocument runs Detect over the text of the main region, or the
// body when there is no main.
func (d *Detector) DetectDocument(doc *goquery.Document) string {
	region := dom.Main(doc)
	if region.Length() == 0 {
		region = doc.Find("body")
	}
	code := d.Detect(strings.Join(strings.Fields(region.Text()), " "))
	d.logger.Debug("document language detected", "language", code)
	return code
}

// Resolve returns configured unless it is Auto, in which case the language
// is detected from doc.
func (d *Detector) Resolve(configured string, doc *goquery.Document) string {
	if configured != Auto {
		if configured == "" {
			return d.fallback
		}
		return configured
	}
	return d.DetectDocument(doc)
}
