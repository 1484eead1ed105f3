package index

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nao1215/storefront/internal/model"
)

// Fetcher retrieves one page of an index.
type Fetcher interface {
	FetchPage(ctx context.Context, name string, limit, offset int) (*model.IndexPage, error)
}

// JSONGetter fetches and decodes a JSON document. httpclient.Client
// implements it.
type JSONGetter interface {
	GetJSON(ctx context.Context, ref string, out any) error
}

// HTTPFetcher reads index pages from /<name>.json?limit=..&offset=..
type HTTPFetcher struct {
	client JSONGetter
}

// NewHTTPFetcher creates a fetcher on top of client.
func NewHTTPFetcher(client JSONGetter) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// PagePath returns the content service path of an index page.
func PagePath(name string, limit, offset int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return "/" + name + ".json?" + q.Encode()
}

// FetchPage requests one page.
func (f *HTTPFetcher) FetchPage(ctx context.Context, name string, limit, offset int) (*model.IndexPage, error) {
	var page model.IndexPage
	if err := f.client.GetJSON(ctx, PagePath(name, limit, offset), &page); err != nil {
		return nil, fmt.Errorf("failed to fetch index %s at offset %d: %w", name, offset, err)
	}
	return &page, nil
}
