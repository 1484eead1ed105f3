package language

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nao1215/storefront/internal/dom"
)

// TestDetector tests language resolution.
func TestDetector(t *testing.T) {
	t.Parallel()

	d := NewDetector("", slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("english text", func(t *testing.T) {
		t.Parallel()
		got := d.Detect("This comfortable backpack has room for a laptop, a water bottle and everything you need for the day.")
		if got != "en" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("german text", func(t *testing.T) {
		t.Parallel()
		got := d.Detect("Dieser bequeme Rucksack bietet Platz für einen Laptop, eine Wasserflasche und alles, was man für den Tag braucht.")
		if got != "de" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("short text falls back", func(t *testing.T) {
		t.Parallel()
		if got := d.Detect("Sale"); got != DefaultFallback {
			t.Errorf("got %q", got)
		}
	})

	t.Run("resolve keeps configured code", func(t *testing.T) {
		t.Parallel()
		if got := d.Resolve("fr", nil); got != "fr" {
			t.Errorf("got %q", got)
		}
		if got := d.Resolve("", nil); got != DefaultFallback {
			t.Errorf("got %q", got)
		}
	})

	t.Run("resolve auto reads main", func(t *testing.T) {
		t.Parallel()
		doc, err := dom.ParseString(`<html><body><header>Menü</header><main><p>Dieser bequeme Rucksack bietet Platz für einen Laptop, eine Wasserflasche und alles, was man für den Tag braucht.</p></main></body></html>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := d.Resolve(Auto, doc); got != "de" {
			t.Errorf("got %q", got)
		}
	})
}
