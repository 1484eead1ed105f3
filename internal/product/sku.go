package product

import (
	"net/url"
	"regexp"
)

// Product detail paths look like /products/<url-key>/<sku>.
var productPathPattern = regexp.MustCompile(`/products/[\w|-]+/([\w|-]+)$`)

// SKUFromURL extracts the SKU from a product detail URL. It returns false
// when the path does not match.
func SKUFromURL(rawURL string) (string, bool) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	m := productPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}
