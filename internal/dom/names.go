package dom

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// ToClassName folds an arbitrary label into a CSS class name: lower case,
// every run of characters outside [0-9a-z] becomes a single hyphen, and
// leading or trailing hyphens are dropped. "Product Details!" becomes
// "product-details".
func ToClassName(name string) string {
	folded := lower.String(name)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ToCamelCase folds a label into camel case: "product-list page" becomes
// "productListPage".
func ToCamelCase(name string) string {
	parts := strings.Split(ToClassName(name), "-")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
