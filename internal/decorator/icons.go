package decorator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/storefront/internal/dom"
)

// DecorateIcons fills `<span class="icon icon-name">` placeholders with an
// <img> pointing at /icons/name.svg. Spans that already hold an image are
// skipped.
func (d *Decorator) DecorateIcons(root *goquery.Selection) {
	root.Find("span.icon").Each(func(_ int, s *goquery.Selection) {
		if s.ChildrenFiltered("img").Length() > 0 {
			return
		}
		name := iconName(s.Nodes[0])
		if name == "" {
			return
		}
		img := dom.NewElement("img",
			html.Attribute{Key: "data-icon-name", Val: name},
			html.Attribute{Key: "src", Val: d.codeBasePath + "/icons/" + name + ".svg"},
			html.Attribute{Key: "alt", Val: ""},
			html.Attribute{Key: "loading", Val: "lazy"},
		)
		s.AppendNodes(img)
	})
}

func iconName(n *html.Node) string {
	for _, c := range dom.Classes(n) {
		if name, ok := strings.CutPrefix(c, "icon-"); ok {
			return name
		}
	}
	return ""
}
