package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata returns the content of the named <meta> tags in the head. Names
// containing a colon are looked up by property (Open Graph style), all
// others by name. Multiple matching tags are joined with ", ".
func Metadata(doc *goquery.Document, name string) string {
	attr := "name"
	if strings.Contains(name, ":") {
		attr = "property"
	}

	var values []string
	doc.Find("head meta").Each(func(_ int, s *goquery.Selection) {
		if v, _ := s.Attr(attr); v != name {
			return
		}
		values = append(values, s.AttrOr("content", ""))
	})
	return strings.Join(values, ", ")
}

// AllMetadata returns every <meta> tag in the given scope as a flat map.
// Both `property="scope:key"` and `name="scope-key"` forms are read; keys
// are folded with ToClassName. When a key repeats, the last tag wins.
func AllMetadata(doc *goquery.Document, scope string) map[string]string {
	result := make(map[string]string)
	if scope == "" {
		return result
	}

	doc.Find("head meta").Each(func(_ int, s *goquery.Selection) {
		var suffix string
		if name, ok := s.Attr("name"); ok && strings.HasPrefix(name, scope+"-") {
			suffix = name[len(scope)+1:]
		} else if prop, ok := s.Attr("property"); ok && strings.HasPrefix(prop, scope+":") {
			parts := strings.Split(prop, ":")
			suffix = parts[1]
		} else {
			return
		}
		result[ToClassName(suffix)] = s.AttrOr("content", "")
	})
	return result
}

// HasMetadataScope reports whether any <meta> tag belongs to the scope.
func HasMetadataScope(doc *goquery.Document, scope string) bool {
	return len(AllMetadata(doc, scope)) > 0
}
