package analytics

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nao1215/storefront/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDataLayerState tests merging of pushed items.
func TestDataLayerState(t *testing.T) {
	t.Parallel()

	dl := NewDataLayer(discardLogger())
	dl.Push(
		map[string]any{KeyPageContext: map[string]any{"pageType": "Product", "pageName": "Bag", "maxXOffset": 0}},
		map[string]any{KeyShoppingCart: map[string]any{"totalQuantity": 0}},
	)
	dl.Push(map[string]any{KeyPageContext: map[string]any{"pageName": "Bag (blue)"}})

	state := dl.State()
	page, _ := state[KeyPageContext].(map[string]any)
	if page["pageType"] != "Product" || page["pageName"] != "Bag (blue)" {
		t.Errorf("got %v", page)
	}
	if _, ok := state[KeyShoppingCart]; !ok {
		t.Error("shopping cart context missing")
	}

	page["pageType"] = "mutated"
	again, _ := dl.State()[KeyPageContext].(map[string]any)
	if again["pageType"] != "Product" {
		t.Error("State returned shared map")
	}
	if n := len(dl.Entries()); n != 3 {
		t.Errorf("got %d entries", n)
	}
}

// TestDataLayerDeferred tests function items waiting for activation.
func TestDataLayerDeferred(t *testing.T) {
	t.Parallel()

	dl := NewDataLayer(discardLogger())
	dl.Push(map[string]any{KeyPageContext: map[string]any{"pageType": "CMS"}})
	dl.Push(func(dl *DataLayer) {
		dl.Push(map[string]any{KeyEvent: EventPageView, KeyEventInfo: dl.State()})
	})

	if len(dl.Events()) != 0 {
		t.Fatal("deferred item ran before activation")
	}
	if dl.Pending() != 1 {
		t.Errorf("got %d pending", dl.Pending())
	}

	dl.Activate()
	dl.Activate()

	events := dl.Events()
	if len(events) != 1 || events[0][KeyEvent] != EventPageView {
		t.Fatalf("got %v", events)
	}
	info, _ := events[0][KeyEventInfo].(map[string]any)
	if _, ok := info[KeyPageContext]; !ok {
		t.Errorf("event snapshot missing page context: %v", info)
	}
	if _, ok := dl.State()[KeyEventInfo]; ok {
		t.Error("eventInfo merged into state")
	}

	ran := false
	dl.Push(Func(func(*DataLayer) { ran = true }))
	if !ran {
		t.Error("item pushed after activation should run immediately")
	}
}

// TestDataLayerIgnoresUnknownItems tests that unsupported items are skipped.
func TestDataLayerIgnoresUnknownItems(t *testing.T) {
	t.Parallel()

	dl := NewDataLayer(discardLogger())
	dl.Push("page-view", 42)
	if len(dl.Entries()) != 0 || dl.Pending() != 0 {
		t.Error("unknown items should be ignored")
	}
}

// TestHistoryTracker tests product and category view history.
func TestHistoryTracker(t *testing.T) {
	t.Parallel()

	store := session.NewMemory(nil)
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := NewHistoryTracker(store,
		WithStoreView("default"),
		WithHistorySize(2),
		WithClock(func() time.Time { return clock }),
		WithHistoryLogger(discardLogger()),
	)

	dl := NewDataLayer(discardLogger())
	h.Track(dl)
	dl.Push(map[string]any{KeyProductContext: map[string]any{"sku": "IGNORED"}})
	dl.Activate()

	for _, sku := range []string{"A1", "B2", "A1", "C3"} {
		dl.Push(map[string]any{KeyProductContext: map[string]any{"sku": sku}})
	}
	dl.Push(map[string]any{KeyCategoryContext: map[string]any{"name": "Bags"}})

	views := h.History(ProductHistoryKey)
	if len(views) != 2 || views[0].SKU != "A1" || views[1].SKU != "C3" {
		t.Fatalf("got %+v", views)
	}
	if views[0].Date != "2026-01-02T03:04:05Z" {
		t.Errorf("got date %q", views[0].Date)
	}
	if _, ok := store.Get("default:" + ProductHistoryKey); !ok {
		t.Error("history not stored under store view prefix")
	}
	if cats := h.History(CategoryHistoryKey); len(cats) != 1 || cats[0].Name != "Bags" {
		t.Errorf("got %+v", cats)
	}
}
