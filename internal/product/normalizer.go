package product

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/model"
)

// Query parameters stripped from product image URLs. The rendering
// containers add their own sizing.
var imageSizingParams = []string{"width", "format", "optimize"}

// Normalizer turns product markup into a ProductRecord.
//
// The document is expected to carry product metadata in the head (sku,
// og:url, product:price-amount, ...) and authored tables in main:
// .product-attributes, .product-images, and for products with variants
// .product-options and .product-variants.
type Normalizer struct {
	logger         *slog.Logger
	baseURL        *url.URL
	strictCurrency bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithBaseURL sets the page URL used to resolve relative image sources.
func WithBaseURL(u *url.URL) Option {
	return func(n *Normalizer) {
		n.baseURL = u
	}
}

// WithStrictCurrency makes mixed variant currencies an error instead of a
// logged warning.
func WithStrictCurrency(strict bool) Option {
	return func(n *Normalizer) {
		n.strictCurrency = strict
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// HasEmbeddedProduct reports whether the document carries enough metadata
// to build the product record without the product service.
func HasEmbeddedProduct(doc *goquery.Document) bool {
	return dom.Metadata(doc, "og:type") == "product" && dom.Metadata(doc, "sku") != ""
}

// HasVariants reports whether the document has a variants region. This
// single check decides between the Simple and Complex shapes.
func HasVariants(doc *goquery.Document) bool {
	return doc.Find(".product-variants").Length() > 0
}

// Parse builds a ProductRecord from the document.
func (n *Normalizer) Parse(doc *goquery.Document) (*model.ProductRecord, error) {
	sku := strings.ToUpper(dom.Metadata(doc, "sku"))
	if sku == "" {
		return nil, ErrMissingSKU
	}

	complexProduct := HasVariants(doc)
	kind := model.ProductKindSimple
	if complexProduct {
		kind = model.ProductKindComplex
	}

	p := &model.ProductRecord{
		TypeName:         kind,
		ExternalID:       dom.Metadata(doc, "externalid"),
		SKU:              sku,
		Name:             strings.TrimSpace(doc.Find("h1").First().Text()),
		Description:      description(doc),
		URL:              dom.Metadata(doc, "og:url"),
		URLKey:           dom.Metadata(doc, "urlkey"),
		InStock:          dom.Metadata(doc, "instock") == "true",
		AddToCartAllowed: dom.Metadata(doc, "addtocartallowed") == "true",
		Images:           n.images(doc),
		Attributes:       attributes(doc),
	}

	if !complexProduct {
		p.Price = simplePrice(doc)
		return p, nil
	}

	options, dropped := ParseOptions(tableRows(doc.Find(".product-options")))
	for _, d := range dropped {
		n.logger.Debug("dropped option row",
			"sku", sku,
			"row", d.Index,
			"reason", string(d.Reason),
		)
	}
	p.Options = options

	rows := tableRows(doc.Find(".product-variants"))
	variants := make([]Variant, 0, len(rows))
	for _, cells := range rows {
		variants = append(variants, ParseVariant(cells))
	}

	result, err := ComputePriceRange(variants, n.strictCurrency)
	switch {
	case err == nil:
		p.PriceRange = result.Range
		if len(result.MixedCurrencies) > 0 {
			n.logger.Warn("variants use mixed currencies",
				"sku", sku,
				"currency", result.Range.Minimum.Final.Amount.Currency,
				"others", result.MixedCurrencies,
			)
		}
	case errors.Is(err, ErrNoVariantPrices):
		n.logger.Warn("no variant prices, omitting price range", "sku", sku)
	default:
		return nil, fmt.Errorf("failed to compute price range for %s: %w", sku, err)
	}

	return p, nil
}

// description joins the inner HTML of the top-level paragraphs of main.
func description(doc *goquery.Document) string {
	var parts []string
	doc.Find("main > div > p").Each(func(_ int, s *goquery.Selection) {
		h, err := s.Html()
		if err != nil {
			return
		}
		parts = append(parts, h)
	})
	return strings.Join(parts, "<br/>")
}

func attributes(doc *goquery.Document) []model.Attribute {
	attrs := []model.Attribute{}
	for _, cells := range tableRows(doc.Find(".product-attributes")) {
		attrs = append(attrs, model.Attribute{
			Name:  cell(cells, 0),
			Label: cell(cells, 1),
			Value: model.ParseAttributeValue(cell(cells, 2)),
		})
	}
	return attrs
}

func (n *Normalizer) images(doc *goquery.Document) []model.Image {
	images := []model.Image{}
	doc.Find(".product-images img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		images = append(images, model.Image{
			URL:   n.cleanImageURL(src),
			Label: s.AttrOr("alt", ""),
			Roles: []string{},
		})
	})
	return images
}

func (n *Normalizer) cleanImageURL(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	if n.baseURL != nil {
		u = n.baseURL.ResolveReference(u)
	}
	u.RawQuery = stripQueryParams(u.RawQuery, imageSizingParams)
	return u.String()
}

// stripQueryParams removes the named keys from a raw query. The remaining
// parameters keep their order and encoding.
func stripQueryParams(rawQuery string, drop []string) string {
	if rawQuery == "" {
		return ""
	}
	parts := strings.Split(rawQuery, "&")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		key, _, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if slices.Contains(drop, key) {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&")
}

// simplePrice reads the price metadata. Only the leading integer part of
// the amount is used; a missing, non-numeric or negative amount yields nil.
func simplePrice(doc *goquery.Document) *model.Price {
	value, ok := leadingInt(dom.Metadata(doc, "product:price-amount"))
	if !ok || value < 0 {
		return nil
	}
	currency := dom.Metadata(doc, "product:price-currency")
	if currency == "" {
		currency = model.DefaultCurrency
	}
	amount := model.Amount{Value: float64(value), Currency: currency}
	return &model.Price{
		Roles:   []string{model.RoleVisible},
		Regular: amount,
		Final:   amount,
	}
}

// leadingInt parses the optional sign and digits at the start of s,
// ignoring leading whitespace and anything after the digits.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// tableRows returns the trimmed text of each cell of each row of an
// authored table block.
func tableRows(block *goquery.Selection) [][]string {
	var rows [][]string
	block.ChildrenFiltered("div").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.ChildrenFiltered("div").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(c.Text()))
		})
		rows = append(rows, cells)
	})
	return rows
}
