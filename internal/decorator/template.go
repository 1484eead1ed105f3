package decorator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/dom"
)

// DecorateTemplateAndTheme adds the template and theme metadata values to
// <body> as classes. Both may hold a comma separated list.
func (d *Decorator) DecorateTemplateAndTheme(doc *goquery.Document) []string {
	var added []string
	body := doc.Find("body").First()
	for _, key := range []string{"template", "theme"} {
		value := dom.Metadata(doc, key)
		if value == "" {
			continue
		}
		for _, part := range strings.Split(value, ",") {
			class := dom.ToClassName(part)
			if class == "" {
				continue
			}
			body.AddClass(class)
			added = append(added, class)
		}
	}
	return added
}
