package lifecycle

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/model"
	"github.com/nao1215/storefront/internal/product"
)

// Marker names the content that decided a page's classification.
type Marker string

// Classification markers, in the order they are checked.
const (
	MarkerEmbeddedProduct Marker = "embedded-product"
	MarkerProductDetails  Marker = "product-details"
	MarkerCustomProduct   Marker = "product-details-custom"
	MarkerProductList     Marker = "product-list-page"
	MarkerCustomList      Marker = "product-list-page-custom"
	MarkerCart            Marker = "commerce-cart"
	MarkerCheckout        Marker = "commerce-checkout"
	MarkerNone            Marker = ""
)

var blockMarkers = []struct {
	marker   Marker
	pageType model.PageType
}{
	{MarkerProductDetails, model.PageTypeProduct},
	{MarkerCustomProduct, model.PageTypeProduct},
	{MarkerProductList, model.PageTypeCategory},
	{MarkerCustomList, model.PageTypeCategory},
	{MarkerCart, model.PageTypeCart},
	{MarkerCheckout, model.PageTypeCheckout},
}

// Classify derives the page type from the document. Embedded product
// metadata wins over any block; otherwise the first matching block marker
// inside main decides, and a page without markers is CMS.
func Classify(doc *goquery.Document) (model.PageType, Marker) {
	if product.HasEmbeddedProduct(doc) {
		return model.PageTypeProduct, MarkerEmbeddedProduct
	}
	for _, m := range blockMarkers {
		if markerBlock(doc, m.marker).Length() > 0 {
			return m.pageType, m.marker
		}
	}
	return model.PageTypeCMS, MarkerNone
}

func markerBlock(doc *goquery.Document, m Marker) *goquery.Selection {
	return doc.Find("main ." + string(m)).First()
}
