package model

import (
	"encoding/json"
	"strings"
)

// ProductKind is the GraphQL type name carried by a product record.
// It doubles as the discriminator between the Simple and Complex shapes.
type ProductKind string

const (
	// ProductKindSimple marks a product with a single price.
	ProductKindSimple ProductKind = "SimpleProductView"

	// ProductKindComplex marks a product with variants, options and a price range.
	ProductKindComplex ProductKind = "ComplexProductView"
)

// RoleVisible is the only price/image role the renderer emits.
const RoleVisible = "visible"

// DefaultCurrency is used when a simple product has no currency metadata.
const DefaultCurrency = "USD"

// Amount is a monetary value with its ISO 4217 currency code.
type Amount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// PriceAmount wraps an Amount the way price-range tracks are shaped.
type PriceAmount struct {
	Amount Amount `json:"amount"`
}

// Price is the single price of a simple product.
type Price struct {
	Roles   []string `json:"roles"`
	Regular Amount   `json:"regular"`
	Final   Amount   `json:"final"`
}

// PriceBand bundles the final and regular tracks at one end of a price range.
type PriceBand struct {
	Final   PriceAmount `json:"final"`
	Regular PriceAmount `json:"regular"`
	Roles   []string    `json:"roles"`
}

// PriceRange is the minimum and maximum price across all variants.
type PriceRange struct {
	Minimum PriceBand `json:"minimum"`
	Maximum PriceBand `json:"maximum"`
}

// Image is a product image with its alt text as label.
type Image struct {
	URL   string   `json:"url"`
	Label string   `json:"label"`
	Roles []string `json:"roles"`
}

// AttributeValue holds either a single scalar or an ordered list of values.
// A cell containing commas is split into a list; anything else stays scalar.
type AttributeValue struct {
	scalar string
	list   []string
}

// ScalarValue creates a single-valued attribute value.
func ScalarValue(v string) AttributeValue {
	return AttributeValue{scalar: v}
}

// ListValue creates a multi-valued attribute value.
func ListValue(values ...string) AttributeValue {
	return AttributeValue{list: append([]string(nil), values...)}
}

// ParseAttributeValue splits a raw cell on commas. A cell without commas
// produces a scalar.
func ParseAttributeValue(raw string) AttributeValue {
	parts := strings.Split(raw, ",")
	if len(parts) == 1 {
		return ScalarValue(parts[0])
	}
	return ListValue(parts...)
}

// IsList reports whether the value is a sequence.
func (v AttributeValue) IsList() bool {
	return v.list != nil
}

// Scalar returns the scalar value, or an empty string for lists.
func (v AttributeValue) Scalar() string {
	return v.scalar
}

// Values returns the value as a slice. Scalars yield a one-element slice.
func (v AttributeValue) Values() []string {
	if v.IsList() {
		return append([]string(nil), v.list...)
	}
	return []string{v.scalar}
}

// MarshalJSON encodes scalars as strings and lists as arrays.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	if v.IsList() {
		return json.Marshal(v.list)
	}
	return json.Marshal(v.scalar)
}

// UnmarshalJSON accepts either a string or an array of strings.
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = ListValue(list...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = ScalarValue(s)
	return nil
}

// Attribute is a named product attribute.
type Attribute struct {
	Name  string         `json:"name"`
	Label string         `json:"label"`
	Value AttributeValue `json:"value"`
}

// OptionValue is one selectable value of a product option.
type OptionValue struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Value    string `json:"value"`
	Type     string `json:"type"`
	Selected bool   `json:"selected"`
	InStock  bool   `json:"inStock"`
}

// Option is a configurable product option such as size or color.
type Option struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	TypeName string        `json:"typeName"`
	Type     string        `json:"type"`
	Multiple bool          `json:"multiple"`
	Required bool          `json:"required"`
	Values   []OptionValue `json:"values"`
}

// ProductRecord is the normalized product entity handed to the product
// rendering containers. Price is set only for simple products; Options and
// PriceRange only for complex ones.
type ProductRecord struct {
	TypeName         ProductKind `json:"__typename"`
	ID               string      `json:"id"`
	ExternalID       string      `json:"externalId"`
	SKU              string      `json:"sku"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"shortDescription"`
	URL              string      `json:"url"`
	URLKey           string      `json:"urlKey"`
	InStock          bool        `json:"inStock"`
	MetaTitle        string      `json:"metaTitle"`
	MetaKeyword      string      `json:"metaKeyword"`
	MetaDescription  string      `json:"metaDescription"`
	AddToCartAllowed bool        `json:"addToCartAllowed"`
	Images           []Image     `json:"images"`
	Attributes       []Attribute `json:"attributes"`

	Price      *Price      `json:"price,omitempty"`
	Options    []Option    `json:"options,omitempty"`
	PriceRange *PriceRange `json:"priceRange,omitempty"`
}

// MarshalJSON picks the price fields by TypeName. A complex record always
// carries options and priceRange, a simple one neither.
func (p ProductRecord) MarshalJSON() ([]byte, error) {
	type base ProductRecord
	if p.TypeName != ProductKindComplex {
		b := base(p)
		b.Options = nil
		b.PriceRange = nil
		return json.Marshal(b)
	}
	options := p.Options
	if options == nil {
		options = []Option{}
	}
	return json.Marshal(struct {
		base
		Price      *Price      `json:"price,omitempty"`
		Options    []Option    `json:"options"`
		PriceRange *PriceRange `json:"priceRange"`
	}{base: base(p), Options: options, PriceRange: p.PriceRange})
}

// IsComplex reports whether the record has the variant shape.
func (p *ProductRecord) IsComplex() bool {
	return p.TypeName == ProductKindComplex
}

// PrimaryImage returns the first image and true, or false when the product
// has no images.
func (p *ProductRecord) PrimaryImage() (Image, bool) {
	if len(p.Images) == 0 {
		return Image{}, false
	}
	return p.Images[0], true
}
