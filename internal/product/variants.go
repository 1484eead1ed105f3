package product

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/nao1215/storefront/internal/model"
)

// Variant price cells hold "<amount> <currency>", e.g. "19.99 USD".
var priceCellPattern = regexp.MustCompile(`\b(\d+(\.\d{1,2})?)\b\s*([A-Z]{3})\b`)

// Column positions of the price cells in a variant row.
const (
	regularPriceColumn = 4
	finalPriceColumn   = 5
)

// Money is a parsed price cell.
type Money struct {
	Value    decimal.Decimal
	Currency string
}

// Amount converts the price to its wire form.
func (m Money) Amount() model.Amount {
	return model.Amount{Value: m.Value.InexactFloat64(), Currency: m.Currency}
}

// Variant holds the prices of one variant row. A nil price means the cell
// was missing or did not match "<amount> <currency>".
type Variant struct {
	Regular *Money
	Final   *Money
}

// ParsePriceCell extracts the first "<amount> <currency>" from a cell.
func ParsePriceCell(cell string) (*Money, bool) {
	m := priceCellPattern.FindStringSubmatch(cell)
	if m == nil {
		return nil, false
	}
	value, err := decimal.NewFromString(m[1])
	if err != nil {
		return nil, false
	}
	return &Money{Value: value, Currency: m[3]}, true
}

// ParseVariant reads the regular and final price cells of a variant row.
func ParseVariant(cells []string) Variant {
	var v Variant
	if len(cells) > regularPriceColumn {
		v.Regular, _ = ParsePriceCell(cells[regularPriceColumn])
	}
	if len(cells) > finalPriceColumn {
		v.Final, _ = ParsePriceCell(cells[finalPriceColumn])
	}
	return v
}

// PriceRangeResult is a computed price range plus the currencies that
// disagreed with the range currency.
type PriceRangeResult struct {
	Range *model.PriceRange

	// MixedCurrencies lists currencies other than the range currency that
	// appeared in variant cells. Empty when variants are homogeneous.
	MixedCurrencies []string
}

// ComputePriceRange derives the minimum and maximum price across variants.
// The final and regular tracks are aggregated independently; variants
// missing a price are skipped for that track only. The range currency is
// that of the first variant with a final price. When no variant has a
// regular price the regular track mirrors the final one.
//
// Mixed currencies are reported in the result. In strict mode they fail
// with ErrMixedCurrency instead.
func ComputePriceRange(variants []Variant, strict bool) (*PriceRangeResult, error) {
	var finals, regulars []decimal.Decimal
	currency := ""
	seen := make(map[string]bool)
	var mixed []string

	note := func(m *Money) {
		if currency != "" && m.Currency != currency && !seen[m.Currency] {
			seen[m.Currency] = true
			mixed = append(mixed, m.Currency)
		}
	}

	for _, v := range variants {
		if v.Final != nil {
			if currency == "" {
				currency = v.Final.Currency
			}
			finals = append(finals, v.Final.Value)
		}
	}
	if len(finals) == 0 {
		return nil, ErrNoVariantPrices
	}

	for _, v := range variants {
		if v.Final != nil {
			note(v.Final)
		}
		if v.Regular != nil {
			note(v.Regular)
			regulars = append(regulars, v.Regular.Value)
		}
	}
	if len(regulars) == 0 {
		regulars = finals
	}

	if strict && len(mixed) > 0 {
		return nil, fmt.Errorf("%w: %s and %v", ErrMixedCurrency, currency, mixed)
	}

	band := func(final, regular decimal.Decimal) model.PriceBand {
		return model.PriceBand{
			Final:   model.PriceAmount{Amount: Money{Value: final, Currency: currency}.Amount()},
			Regular: model.PriceAmount{Amount: Money{Value: regular, Currency: currency}.Amount()},
			Roles:   []string{model.RoleVisible},
		}
	}

	return &PriceRangeResult{
		Range: &model.PriceRange{
			Minimum: band(decimal.Min(finals[0], finals[1:]...), decimal.Min(regulars[0], regulars[1:]...)),
			Maximum: band(decimal.Max(finals[0], finals[1:]...), decimal.Max(regulars[0], regulars[1:]...)),
		},
		MixedCurrencies: mixed,
	}, nil
}
