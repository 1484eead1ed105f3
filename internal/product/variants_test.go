package product

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func money(value, currency string) *Money {
	return &Money{Value: decimal.RequireFromString(value), Currency: currency}
}

// TestComputePriceRange tests min and max aggregation across variants.
func TestComputePriceRange(t *testing.T) {
	t.Parallel()

	t.Run("final prices 19.99 24.50 15.00", func(t *testing.T) {
		t.Parallel()
		variants := []Variant{
			{Regular: money("19.99", "USD"), Final: money("19.99", "USD")},
			{Regular: money("24.50", "USD"), Final: money("24.50", "USD")},
			{Regular: money("15.00", "USD"), Final: money("15.00", "USD")},
		}
		result, err := ComputePriceRange(variants, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r := result.Range
		if r.Minimum.Final.Amount.Value != 15.00 {
			t.Errorf("got minimum %v, expected 15.00", r.Minimum.Final.Amount.Value)
		}
		if r.Maximum.Final.Amount.Value != 24.50 {
			t.Errorf("got maximum %v, expected 24.50", r.Maximum.Final.Amount.Value)
		}
		if r.Minimum.Final.Amount.Currency != "USD" || r.Maximum.Final.Amount.Currency != "USD" {
			t.Error("expected USD on both ends")
		}
		if len(r.Minimum.Roles) != 1 || r.Minimum.Roles[0] != "visible" {
			t.Errorf("unexpected roles: %v", r.Minimum.Roles)
		}
		if len(result.MixedCurrencies) != 0 {
			t.Errorf("unexpected mixed currencies: %v", result.MixedCurrencies)
		}
	})

	t.Run("tracks are independent", func(t *testing.T) {
		t.Parallel()
		variants := []Variant{
			{Regular: money("50", "USD"), Final: money("10", "USD")},
			{Regular: money("20", "USD"), Final: money("30", "USD")},
		}
		result, err := ComputePriceRange(variants, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r := result.Range
		if r.Minimum.Regular.Amount.Value != 20 || r.Maximum.Regular.Amount.Value != 50 {
			t.Errorf("unexpected regular track: %+v", r)
		}
		if r.Minimum.Final.Amount.Value != 10 || r.Maximum.Final.Amount.Value != 30 {
			t.Errorf("unexpected final track: %+v", r)
		}
	})

	t.Run("missing regular prices mirror final", func(t *testing.T) {
		t.Parallel()
		result, err := ComputePriceRange([]Variant{{Final: money("5", "EUR")}}, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Range.Maximum.Regular.Amount.Value != 5 {
			t.Errorf("got %+v", result.Range.Maximum.Regular)
		}
	})

	t.Run("no final prices", func(t *testing.T) {
		t.Parallel()
		_, err := ComputePriceRange([]Variant{{Regular: money("5", "EUR")}, {}}, false)
		if !errors.Is(err, ErrNoVariantPrices) {
			t.Errorf("got %v, expected ErrNoVariantPrices", err)
		}
	})

	t.Run("mixed currencies are reported", func(t *testing.T) {
		t.Parallel()
		variants := []Variant{
			{Final: money("5", "EUR")},
			{Final: money("6", "USD"), Regular: money("7", "GBP")},
		}
		result, err := ComputePriceRange(variants, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.MixedCurrencies) != 2 {
			t.Errorf("got %v, expected USD and GBP", result.MixedCurrencies)
		}
		if result.Range.Minimum.Final.Amount.Currency != "EUR" {
			t.Errorf("expected first variant currency")
		}

		if _, err := ComputePriceRange(variants, true); !errors.Is(err, ErrMixedCurrency) {
			t.Errorf("got %v, expected ErrMixedCurrency", err)
		}
	})
}

// TestParsePriceCell tests the "<amount> <currency>" pattern.
func TestParsePriceCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell     string
		ok       bool
		value    string
		currency string
	}{
		{"19.99 USD", true, "19.99", "USD"},
		{"From 7 EUR", true, "7", "EUR"},
		{"24.5 USD", true, "24.5", "USD"},
		{"24.5USD", false, "", ""},
		{"USD", false, "", ""},
		{"usd 10", false, "", ""},
		{"", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			t.Parallel()
			m, ok := ParsePriceCell(tt.cell)
			if ok != tt.ok {
				t.Fatalf("got ok=%v, expected %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !m.Value.Equal(decimal.RequireFromString(tt.value)) || m.Currency != tt.currency {
				t.Errorf("got %s %s", m.Value, m.Currency)
			}
		})
	}
}

// TestParseVariantShortRow tests rows missing price columns.
func TestParseVariantShortRow(t *testing.T) {
	t.Parallel()

	v := ParseVariant([]string{"sku", "S"})
	if v.Regular != nil || v.Final != nil {
		t.Errorf("expected no prices, got %+v", v)
	}
}
