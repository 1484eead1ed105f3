package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/storefront/internal/model"
)

// TestProductCmd tests printing normalized product records.
func TestProductCmd(t *testing.T) {
	t.Parallel()

	t.Run("normalizes an embedded product", func(t *testing.T) {
		t.Parallel()

		page := writePage(t, "saved.html", embeddedProductPage)
		out, err := execute(t, "product", "--no-db",
			"--page-url", "https://shop.example.com/products/bag/adb150", page)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rec model.ProductRecord
		if err := json.Unmarshal([]byte(out), &rec); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if rec.SKU != "ADB150" {
			t.Errorf("got sku %q", rec.SKU)
		}
		if rec.Price == nil || rec.Price.Final.Currency != "USD" {
			t.Errorf("got price %+v", rec.Price)
		}
		img, ok := rec.PrimaryImage()
		if !ok || !strings.HasPrefix(img.URL, "https://shop.example.com/media/bag.jpg") {
			t.Errorf("expected image resolved against the page url, got %+v", rec.Images)
		}
	})

	t.Run("fetches a sku from the catalog", func(t *testing.T) {
		t.Parallel()

		sf := newStorefront(t)
		out, err := execute(t, "product", "--no-db", "--product-endpoint", sf.URL+"/graphql", "--sku", "adb150")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rec model.ProductRecord
		if err := json.Unmarshal([]byte(out), &rec); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if rec.SKU != "ADB150" || rec.Name != "Bag" || rec.TypeName != model.ProductKindSimple {
			t.Errorf("got %+v", rec)
		}
		if rec.Price == nil || rec.Price.Final.Value != 49 {
			t.Errorf("got price %+v", rec.Price)
		}
		if skus := sf.requestedSKUs(); len(skus) != 1 || skus[0] != "adb150" {
			t.Errorf("got catalog requests %v", skus)
		}
	})

	t.Run("page without product data", func(t *testing.T) {
		t.Parallel()

		page := writePage(t, "index.html", homePage)
		_, err := execute(t, "product", "--no-db", page)
		if err == nil || !strings.Contains(err.Error(), "no embedded product data") {
			t.Errorf("expected no product data error, got %v", err)
		}
	})

	t.Run("requires a target or sku", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "product", "--no-db")
		if err == nil || !strings.Contains(err.Error(), "--sku is required") {
			t.Errorf("expected missing target error, got %v", err)
		}
	})

	t.Run("sku requires an endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "product", "--no-db", "--sku", "adb150")
		if !errors.Is(err, errNoProductEndpoint) {
			t.Errorf("expected errNoProductEndpoint, got %v", err)
		}
	})
}
