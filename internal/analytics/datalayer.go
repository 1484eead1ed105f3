package analytics

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
)

// Well-known data layer keys.
const (
	KeyEvent           = "event"
	KeyEventInfo       = "eventInfo"
	KeyPageContext     = "pageContext"
	KeyShoppingCart    = "shoppingCartContext"
	KeyProductContext  = "productContext"
	KeyCategoryContext = "categoryContext"

	// EventPageView is pushed once per rendered page.
	EventPageView = "page-view"
)

// Func is a deferred data layer item. It runs once the data layer runtime
// is active and may push further items.
type Func func(dl *DataLayer)

// Listener is notified after a pushed item changed the state under its path.
type Listener func(item map[string]any)

type listener struct {
	path string
	fn   Listener
}

// DataLayer is a server-side rendition of a client data layer queue.
//
// Data items are deep-merged into the computed state; items with an
// "event" key are recorded as events and only their other keys (other than
// eventInfo) are merged. Func items queue until Activate is called, which
// mirrors the runtime script arriving after the page pushed its first
// entries.
type DataLayer struct {
	mu        sync.Mutex
	state     map[string]any
	entries   []map[string]any
	events    []map[string]any
	queued    []Func
	active    bool
	listeners []listener
	logger    *slog.Logger
}

// NewDataLayer creates an inactive, empty DataLayer.
func NewDataLayer(logger *slog.Logger) *DataLayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataLayer{
		state:  make(map[string]any),
		logger: logger,
	}
}

// Push appends items to the queue. Each item is a map[string]any, a Func
// or a func(*DataLayer). Other types are logged and ignored.
func (d *DataLayer) Push(items ...any) {
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			d.pushData(v)
		case Func:
			d.pushFunc(v)
		case func(*DataLayer):
			d.pushFunc(v)
		default:
			d.logger.Warn("ignored data layer item", "type", fmt.Sprintf("%T", item))
		}
	}
}

func (d *DataLayer) pushData(item map[string]any) {
	item = deepCopy(item)

	d.mu.Lock()
	d.entries = append(d.entries, item)
	if _, isEvent := item[KeyEvent]; isEvent {
		d.events = append(d.events, item)
	}
	for k, v := range item {
		if k == KeyEvent || k == KeyEventInfo {
			continue
		}
		d.state[k] = merge(d.state[k], v)
	}
	var notify []Listener
	for _, l := range d.listeners {
		if _, ok := item[l.path]; ok {
			notify = append(notify, l.fn)
		}
	}
	d.mu.Unlock()

	for _, fn := range notify {
		fn(deepCopy(item))
	}
}

func (d *DataLayer) pushFunc(fn Func) {
	d.mu.Lock()
	if !d.active {
		d.queued = append(d.queued, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	fn(d)
}

// Activate runs every queued Func in push order. Funcs pushed afterwards
// run immediately. Calling Activate again has no effect.
func (d *DataLayer) Activate() {
	d.mu.Lock()
	if d.active {
		d.mu.Unlock()
		return
	}
	d.active = true
	queued := d.queued
	d.queued = nil
	d.mu.Unlock()

	d.logger.Debug("data layer activated", "queued", len(queued))
	for _, fn := range queued {
		fn(d)
	}
}

// Active reports whether Activate was called.
func (d *DataLayer) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// AddListener calls fn for every later data item that has a top-level
// path key.
func (d *DataLayer) AddListener(path string, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener{path: path, fn: fn})
}

// State returns a deep copy of the merged state.
func (d *DataLayer) State() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return deepCopy(d.state)
}

// Entries returns copies of every data item pushed so far, in order.
func (d *DataLayer) Entries() []map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]map[string]any, len(d.entries))
	for i, e := range d.entries {
		out[i] = deepCopy(e)
	}
	return out
}

// Events returns copies of the event items pushed so far.
func (d *DataLayer) Events() []map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]map[string]any, len(d.events))
	for i, e := range d.events {
		out[i] = deepCopy(e)
	}
	return out
}

// Pending returns the number of Funcs waiting for Activate.
func (d *DataLayer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queued)
}

// merge returns src merged over dst. Nested maps merge key by key; any
// other value replaces what was there.
func merge(dst, src any) any {
	srcMap, ok := src.(map[string]any)
	if !ok {
		return src
	}
	dstMap, ok := dst.(map[string]any)
	if !ok {
		return deepCopy(srcMap)
	}
	out := maps.Clone(dstMap)
	for k, v := range srcMap {
		out[k] = merge(out[k], v)
	}
	return out
}

func deepCopy(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = copyValue(e)
		}
		return s
	default:
		return v
	}
}
