package analytics

import (
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"github.com/nao1215/storefront/internal/session"
)

// Session keys holding the view history, prefixed with the store view code.
const (
	ProductHistoryKey  = "productViewHistory"
	CategoryHistoryKey = "categoryViewHistory"
)

// DefaultHistorySize is the number of views kept per history.
const DefaultHistorySize = 10

// View is one entry of a view history.
type View struct {
	Date string `json:"date"`
	SKU  string `json:"sku,omitempty"`
	Name string `json:"name,omitempty"`
}

// HistoryTracker records product and category views pushed to a data layer
// into the visitor session, for recommendation widgets to read later.
type HistoryTracker struct {
	store     session.Store
	storeView string
	size      int
	now       func() time.Time
	logger    *slog.Logger
}

// HistoryOption configures a HistoryTracker.
type HistoryOption func(*HistoryTracker)

// WithStoreView prefixes the session keys with a store view code.
func WithStoreView(code string) HistoryOption {
	return func(h *HistoryTracker) {
		h.storeView = code
	}
}

// WithHistorySize sets how many views are kept.
func WithHistorySize(n int) HistoryOption {
	return func(h *HistoryTracker) {
		if n > 0 {
			h.size = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) HistoryOption {
	return func(h *HistoryTracker) {
		h.now = now
	}
}

// WithHistoryLogger sets the logger.
func WithHistoryLogger(logger *slog.Logger) HistoryOption {
	return func(h *HistoryTracker) {
		h.logger = logger
	}
}

// NewHistoryTracker creates a tracker writing to store.
func NewHistoryTracker(store session.Store, opts ...HistoryOption) *HistoryTracker {
	h := &HistoryTracker{
		store: store,
		size:  DefaultHistorySize,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Track subscribes the tracker to product and category context changes.
// The subscription itself is a deferred item, so it takes effect once the
// data layer is active.
func (h *HistoryTracker) Track(dl *DataLayer) {
	dl.Push(Func(func(dl *DataLayer) {
		dl.AddListener(KeyProductContext, func(item map[string]any) {
			ctx, _ := item[KeyProductContext].(map[string]any)
			sku, _ := ctx["sku"].(string)
			if sku == "" {
				return
			}
			h.record(ProductHistoryKey, View{SKU: sku}, func(v View) bool { return v.SKU == sku })
		})
		dl.AddListener(KeyCategoryContext, func(item map[string]any) {
			ctx, _ := item[KeyCategoryContext].(map[string]any)
			name, _ := ctx["name"].(string)
			if name == "" {
				return
			}
			h.record(CategoryHistoryKey, View{Name: name}, func(v View) bool { return v.Name == name })
		})
	}))
}

// History returns the stored views under key, oldest first.
func (h *HistoryTracker) History(key string) []View {
	raw, ok := h.store.Get(h.key(key))
	if !ok || raw == "" {
		return nil
	}
	var views []View
	if err := json.Unmarshal([]byte(raw), &views); err != nil {
		h.logger.Warn("discarding unreadable view history", "key", h.key(key), "error", err)
		return nil
	}
	return views
}

func (h *HistoryTracker) record(key string, v View, same func(View) bool) {
	views := slices.DeleteFunc(h.History(key), same)
	v.Date = h.now().UTC().Format(time.RFC3339)
	views = append(views, v)
	if len(views) > h.size {
		views = views[len(views)-h.size:]
	}
	b, err := json.Marshal(views)
	if err != nil {
		h.logger.Warn("failed to encode view history", "key", h.key(key), "error", err)
		return
	}
	h.store.Set(h.key(key), string(b))
}

func (h *HistoryTracker) key(name string) string {
	if h.storeView == "" {
		return name
	}
	return h.storeView + ":" + name
}
