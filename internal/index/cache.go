package index

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/nao1215/storefront/internal/model"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 500

// load is one in-flight page request. Every caller that arrives while it
// runs waits on done and receives the same entry or error.
type load struct {
	done    chan struct{}
	entry   *model.IndexEntry
	err     error
	waiters int
}

// slot is the cache state of one index name.
type slot struct {
	entry   *model.IndexEntry
	pending *load
}

// Cache accumulates paginated indexes page by page.
//
// Each call to Fetch loads at most one further page for an index. At most
// one load per name is in flight; concurrent callers share it. Published
// entries are never modified: a successful load replaces the entry with a
// new one whose Data extends the old Data. A failed load leaves the entry
// untouched so the next call retries the same offset.
type Cache struct {
	fetcher  Fetcher
	store    Store
	logger   *slog.Logger
	pageSize int

	mu    sync.Mutex
	slots map[string]*slot
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithStore enables write-through persistence and warm starts.
func WithStore(store Store) Option {
	return func(c *Cache) {
		c.store = store
	}
}

// WithPageSize sets the page size used when Fetch is called with zero.
func WithPageSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewCache creates a Cache reading pages through fetcher.
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:  fetcher,
		pageSize: DefaultPageSize,
		slots:    make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// slotFor returns the slot for name, creating the zero state on first use.
// The caller must hold c.mu.
func (c *Cache) slotFor(name string) *slot {
	s, ok := c.slots[name]
	if !ok {
		s = &slot{entry: model.NewIndexEntry(name)}
		c.slots[name] = s
	}
	return s
}

// Fetch returns the index after loading at most one more page.
//
// A complete index is returned without network access. If a load for name
// is already running, Fetch waits for it instead of starting another. A
// pageSize of zero or less uses the cache default.
//
// The load itself is not tied to ctx: cancelling ctx only stops this
// caller from waiting.
func (c *Cache) Fetch(ctx context.Context, name string, pageSize int) (*model.IndexEntry, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if pageSize <= 0 {
		pageSize = c.pageSize
	}

	c.mu.Lock()
	s := c.slotFor(name)
	if s.entry.Complete {
		entry := s.entry
		c.mu.Unlock()
		return entry, nil
	}
	l := s.pending
	if l == nil {
		l = &load{done: make(chan struct{})}
		s.pending = l
		go c.run(context.WithoutCancel(ctx), name, pageSize, s.entry, l)
	}
	l.waiters++
	c.mu.Unlock()

	select {
	case <-l.done:
		return l.entry, l.err
	case <-ctx.Done():
		c.mu.Lock()
		l.waiters--
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// run performs one page load and publishes its outcome.
func (c *Cache) run(ctx context.Context, name string, pageSize int, from *model.IndexEntry, l *load) {
	defer close(l.done)

	next, err := c.loadPage(ctx, name, pageSize, from)

	c.mu.Lock()
	s := c.slots[name]
	if err == nil {
		s.entry = next
	}
	c.mu.Unlock()

	if err == nil && c.store != nil {
		if serr := c.store.Save(ctx, next); serr != nil {
			c.logger.Warn("failed to persist index",
				"index", name,
				"error", serr,
			)
		}
	}

	c.mu.Lock()
	s.pending = nil
	l.entry, l.err = next, err
	waiters := l.waiters
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("index load failed",
			"index", name,
			"offset", from.Offset,
			"waiters", waiters,
			"error", err,
		)
		return
	}
	c.logger.Debug("index page loaded",
		"index", name,
		"records", next.Len(),
		"offset", next.Offset,
		"complete", next.Complete,
		"waiters", waiters,
	)
}

func (c *Cache) loadPage(ctx context.Context, name string, pageSize int, from *model.IndexEntry) (*model.IndexEntry, error) {
	page, err := c.fetcher.FetchPage(ctx, name, pageSize, from.Offset)
	if err != nil {
		return nil, err
	}
	if page.Limit < 0 || page.Offset < 0 || page.Total < 0 {
		return nil, fmt.Errorf("%w: %s limit=%d offset=%d total=%d",
			ErrInvalidPage, name, page.Limit, page.Offset, page.Total)
	}

	data := slices.Grow(slices.Clone(from.Data), len(page.Data))
	data = append(data, page.Data...)
	return &model.IndexEntry{
		Name:     name,
		Data:     data,
		Offset:   from.Offset + pageSize,
		Complete: page.IsLast(),
	}, nil
}

// FetchAll keeps fetching until the index is complete or maxPages pages
// were loaded. A maxPages of zero or less means no limit.
func (c *Cache) FetchAll(ctx context.Context, name string, pageSize, maxPages int) (*model.IndexEntry, error) {
	var entry *model.IndexEntry
	for i := 0; maxPages <= 0 || i < maxPages; i++ {
		var err error
		entry, err = c.Fetch(ctx, name, pageSize)
		if err != nil {
			return nil, err
		}
		if entry.Complete {
			break
		}
	}
	return entry, nil
}

// Warm seeds the cache from the store for the given names. Names that
// already have a slot are left alone.
func (c *Cache) Warm(ctx context.Context, names ...string) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	warmed := 0
	for _, name := range names {
		entry, ok, err := c.store.Load(ctx, name)
		if err != nil {
			return warmed, fmt.Errorf("failed to warm index %s: %w", name, err)
		}
		if !ok {
			continue
		}
		c.mu.Lock()
		if _, exists := c.slots[name]; !exists {
			c.slots[name] = &slot{entry: entry}
			warmed++
		}
		c.mu.Unlock()
	}
	return warmed, nil
}

// Entry returns the current snapshot of an index without loading anything.
func (c *Cache) Entry(name string) (*model.IndexEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[name]
	if !ok {
		return nil, false
	}
	return s.entry, true
}

// Pending reports whether a load for name is in flight, and how many
// callers are waiting on it.
func (c *Cache) Pending(name string) (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[name]
	if !ok || s.pending == nil {
		return false, 0
	}
	return true, s.pending.waiters
}

// Names returns the names of every index the cache knows about.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.slots))
	for name := range c.slots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
