package model

import (
	"encoding/json"
	"fmt"
)

// PageType classifies a storefront page by the commerce markers present in
// its main content. It is derived once per page load and never changes
// afterwards.
type PageType int

const (
	// PageTypeCMS is an authored content page without commerce blocks.
	// It is the fallback when no other marker matches.
	PageTypeCMS PageType = iota

	// PageTypeProduct is a product detail page, either with embedded product
	// data or with a product-details block that fetches it remotely.
	PageTypeProduct

	// PageTypeCategory is a product listing page.
	PageTypeCategory

	// PageTypeCart is the shopping cart page.
	PageTypeCart

	// PageTypeCheckout is the checkout page.
	PageTypeCheckout
)

// String returns the analytics name of the page type.
func (p PageType) String() string {
	switch p {
	case PageTypeCMS:
		return "CMS"
	case PageTypeProduct:
		return "Product"
	case PageTypeCategory:
		return "Category"
	case PageTypeCart:
		return "Cart"
	case PageTypeCheckout:
		return "Checkout"
	default:
		return "Unknown"
	}
}

// ParsePageType converts an analytics name back into a PageType.
func ParsePageType(s string) (PageType, error) {
	for _, p := range AllPageTypes() {
		if p.String() == s {
			return p, nil
		}
	}
	return PageTypeCMS, fmt.Errorf("unknown page type %q", s)
}

// AllPageTypes returns every page type in declaration order.
func AllPageTypes() []PageType {
	return []PageType{
		PageTypeCMS,
		PageTypeProduct,
		PageTypeCategory,
		PageTypeCart,
		PageTypeCheckout,
	}
}

// MarshalJSON encodes the page type by name.
func (p PageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a page type from its name.
func (p *PageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePageType(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
