package index

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultQueryIndex is the site-wide index listing every published page.
const DefaultQueryIndex = "query-index"

// Prewarmer loads the first page of the query index ahead of a category
// listing so the listing widget finds it cached.
type Prewarmer struct {
	cache     *Cache
	indexName string
	pageSize  int
	logger    *slog.Logger
}

// PrewarmOption configures a Prewarmer.
type PrewarmOption func(*Prewarmer)

// WithIndexName overrides the index that is prewarmed.
func WithIndexName(name string) PrewarmOption {
	return func(p *Prewarmer) {
		if name != "" {
			p.indexName = name
		}
	}
}

// WithPrewarmLogger sets the logger.
func WithPrewarmLogger(logger *slog.Logger) PrewarmOption {
	return func(p *Prewarmer) {
		p.logger = logger
	}
}

// NewPrewarmer creates a Prewarmer on top of cache.
func NewPrewarmer(cache *Cache, opts ...PrewarmOption) *Prewarmer {
	p := &Prewarmer{
		cache:     cache,
		indexName: DefaultQueryIndex,
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// PreloadCategory fetches the next page of the query index and reports how
// many of the records loaded so far live under urlPath.
func (p *Prewarmer) PreloadCategory(ctx context.Context, categoryID, urlPath string) (int, error) {
	entry, err := p.cache.Fetch(ctx, p.indexName, p.pageSize)
	if err != nil {
		return 0, err
	}
	matches := 0
	for _, rec := range entry.Data {
		path, _ := rec["path"].(string)
		if urlPath != "" && strings.HasPrefix(path, urlPath) {
			matches++
		}
	}
	p.logger.Debug("category preloaded",
		"category", categoryID,
		"urlpath", urlPath,
		"index", p.indexName,
		"records", entry.Len(),
		"matches", matches,
	)
	return matches, nil
}
