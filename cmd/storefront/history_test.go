package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/storefront/internal/model"
)

// TestHistoryCmd tests reading stored render reports.
func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	dbDir := filepath.Join(t.TempDir(), "db")
	home := writePage(t, "home.html", homePage)
	for range 2 {
		if _, err := execute(t, "render", "--db-dir", dbDir, "--delay", "0", home); err != nil {
			t.Fatalf("render failed: %v", err)
		}
	}
	const pageURL = "http://localhost/home"

	t.Run("lists rendered urls", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Rendered pages (1)") || !strings.Contains(out, pageURL) {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("lists renders of a url", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "history", "--db-dir", dbDir, pageURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "(2 renders)") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("unknown url", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "history", "--db-dir", dbDir, "http://localhost/missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No render history found") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("compares the two newest renders", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "history", "--db-dir", dbDir, "--diff", pageURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Comparing renders of "+pageURL) {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("compares as JSON", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "history", "--db-dir", dbDir, "--diff", "--json", pageURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var d reportDiff
		if err := json.Unmarshal([]byte(out), &d); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if d.URL != pageURL || d.FromID == "" || d.FromID == d.ToID {
			t.Errorf("got %+v", d)
		}
		if d.FromType != model.PageTypeCMS || d.ToType != model.PageTypeCMS {
			t.Errorf("got types %v -> %v", d.FromType, d.ToType)
		}
	})

	t.Run("diff needs a url", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "history", "--db-dir", dbDir, "--diff")
		if err == nil || !strings.Contains(err.Error(), "--diff needs a URL") {
			t.Errorf("expected missing url error, got %v", err)
		}
	})
}

// TestHistoryCmdNoDatabase tests history before anything was rendered.
func TestHistoryCmdNoDatabase(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "history", "--db-dir", filepath.Join(t.TempDir(), "none"))
	if !errors.Is(err, errNoHistory) {
		t.Errorf("expected errNoHistory, got %v", err)
	}
}

// TestCompareReports tests diffing two renders.
func TestCompareReports(t *testing.T) {
	t.Parallel()

	older := &model.RenderReport{
		ID:          "a",
		URL:         "https://shop.example.com/products/bag/adb150",
		PageType:    model.PageTypeCMS,
		Hints:       []model.PreloadHint{{Href: "/scripts/old.js", As: model.PreloadAsScript}},
		Warnings:    []string{"known"},
		ContentHash: "x",
		Size:        1000,
	}
	newer := &model.RenderReport{
		ID:       "b",
		URL:      older.URL,
		PageType: model.PageTypeProduct,
		Hints: []model.PreloadHint{
			{Href: "/scripts/pdp.js", As: model.PreloadAsScript},
		},
		Warnings:    []string{"known", "fresh"},
		ContentHash: "y",
		Size:        1500,
	}

	t.Run("detects changes", func(t *testing.T) {
		t.Parallel()

		d := compareReports(older, newer)
		if !d.Changed() {
			t.Fatal("expected a change")
		}
		if d.FromType != model.PageTypeCMS || d.ToType != model.PageTypeProduct {
			t.Errorf("got types %v -> %v", d.FromType, d.ToType)
		}
		if len(d.AddedHints) != 1 || d.AddedHints[0] != "script /scripts/pdp.js" {
			t.Errorf("got added %v", d.AddedHints)
		}
		if len(d.RemovedHints) != 1 || d.RemovedHints[0] != "script /scripts/old.js" {
			t.Errorf("got removed %v", d.RemovedHints)
		}
		if len(d.NewWarnings) != 1 || d.NewWarnings[0] != "fresh" {
			t.Errorf("got warnings %v", d.NewWarnings)
		}
		if d.SizeDelta != 500 || !d.HashChanged {
			t.Errorf("got delta=%d changed=%v", d.SizeDelta, d.HashChanged)
		}

		var buf bytes.Buffer
		writeDiff(&buf, d, time.Now().Add(-time.Hour), time.Now())
		for _, want := range []string{"Page type: CMS -> Product", "+ script /scripts/pdp.js", "- script /scripts/old.js", "! fresh", "Document changed (+500 B)"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected %q in:\n%s", want, buf.String())
			}
		}
	})

	t.Run("identical renders", func(t *testing.T) {
		t.Parallel()

		d := compareReports(older, older)
		if d.Changed() {
			t.Errorf("expected no change, got %+v", d)
		}
		var buf bytes.Buffer
		writeDiff(&buf, d, time.Now(), time.Now())
		if !strings.Contains(buf.String(), "No changes.") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}
