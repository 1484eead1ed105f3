package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestParseAttributeValue tests splitting attribute cells on commas.
func TestParseAttributeValue(t *testing.T) {
	t.Parallel()

	t.Run("comma separated cell becomes a list", func(t *testing.T) {
		t.Parallel()
		v := ParseAttributeValue("Red,Blue,Green")
		if !v.IsList() {
			t.Fatal("expected list value")
		}
		got := v.Values()
		if len(got) != 3 || got[0] != "Red" || got[1] != "Blue" || got[2] != "Green" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("single value stays scalar", func(t *testing.T) {
		t.Parallel()
		v := ParseAttributeValue("Red")
		if v.IsList() {
			t.Fatal("expected scalar value")
		}
		if v.Scalar() != "Red" {
			t.Errorf("got %q, expected Red", v.Scalar())
		}
	})

	t.Run("empty cell stays scalar", func(t *testing.T) {
		t.Parallel()
		v := ParseAttributeValue("")
		if v.IsList() || v.Scalar() != "" {
			t.Errorf("got %+v", v)
		}
	})
}

// TestAttributeValueJSON tests the scalar-or-list encoding.
func TestAttributeValueJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    AttributeValue
		expected string
	}{
		{"scalar encodes as string", ScalarValue("Cotton"), `"Cotton"`},
		{"list encodes as array", ListValue("S", "M"), `["S","M"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("got %s, expected %s", data, tt.expected)
			}

			var decoded AttributeValue
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decoded.IsList() != tt.value.IsList() {
				t.Errorf("list flag changed after decoding")
			}
		})
	}
}

// TestProductRecordShape tests that the Simple and Complex shapes serialize
// without each other's fields.
func TestProductRecordShape(t *testing.T) {
	t.Parallel()

	t.Run("simple product omits options and price range", func(t *testing.T) {
		t.Parallel()
		p := &ProductRecord{
			TypeName: ProductKindSimple,
			SKU:      "ABC",
			Price: &Price{
				Roles:   []string{RoleVisible},
				Regular: Amount{Value: 10, Currency: "USD"},
				Final:   Amount{Value: 10, Currency: "USD"},
			},
		}
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := string(data)
		if strings.Contains(s, `"options"`) || strings.Contains(s, `"priceRange"`) {
			t.Errorf("simple product leaked complex fields: %s", s)
		}
		if !strings.Contains(s, `"__typename":"SimpleProductView"`) {
			t.Errorf("missing type name: %s", s)
		}
		if p.IsComplex() {
			t.Error("expected simple product")
		}
	})

	t.Run("complex product omits price", func(t *testing.T) {
		t.Parallel()
		p := &ProductRecord{
			TypeName:   ProductKindComplex,
			SKU:        "XYZ",
			Options:    []Option{{ID: "size"}},
			PriceRange: &PriceRange{},
		}
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(string(data), `"price"`) {
			t.Errorf("complex product leaked price: %s", data)
		}
		if !p.IsComplex() {
			t.Error("expected complex product")
		}
	})

	t.Run("complex product keeps empty options and missing price range", func(t *testing.T) {
		t.Parallel()
		p := ProductRecord{
			TypeName: ProductKindComplex,
			SKU:      "XYZ",
			Price:    &Price{Final: Amount{Value: 1, Currency: "USD"}},
		}
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := string(data)
		if !strings.Contains(s, `"options":[]`) || !strings.Contains(s, `"priceRange":null`) {
			t.Errorf("complex product lost its variant fields: %s", s)
		}
		if strings.Contains(s, `"price"`) {
			t.Errorf("complex product leaked price: %s", s)
		}
	})

	t.Run("simple product drops stray variant fields", func(t *testing.T) {
		t.Parallel()
		p := &ProductRecord{
			TypeName:   ProductKindSimple,
			SKU:        "ABC",
			Options:    []Option{{ID: "size"}},
			PriceRange: &PriceRange{},
		}
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := string(data)
		if strings.Contains(s, `"options"`) || strings.Contains(s, `"priceRange"`) {
			t.Errorf("simple product leaked complex fields: %s", s)
		}
	})
}

// TestProductRecordPrimaryImage tests primary image lookup.
func TestProductRecordPrimaryImage(t *testing.T) {
	t.Parallel()

	p := &ProductRecord{}
	if _, ok := p.PrimaryImage(); ok {
		t.Error("expected no primary image")
	}

	p.Images = []Image{{URL: "/a.jpg"}, {URL: "/b.jpg"}}
	img, ok := p.PrimaryImage()
	if !ok || img.URL != "/a.jpg" {
		t.Errorf("got %+v, %v", img, ok)
	}
}
