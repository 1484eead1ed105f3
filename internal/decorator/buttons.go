package decorator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/storefront/internal/dom"
)

// DecorateButtons turns links that stand alone in a paragraph into buttons.
// A link wrapped in <strong> becomes a primary button, one wrapped in <em>
// a secondary button. Links containing images and links whose text is
// their own URL are left alone.
func (d *Decorator) DecorateButtons(root *goquery.Selection) {
	root.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		a := s.Nodes[0]
		href := dom.Attr(a, "href")
		text := strings.TrimSpace(dom.TextContent(a))
		if dom.Attr(a, "title") == "" && text != "" {
			dom.SetAttr(a, "title", text)
		}
		if href == text || s.Find("img").Length() > 0 {
			return
		}

		up := a.Parent
		if up == nil || !onlyChild(up, a) {
			return
		}

		switch up.DataAtom {
		case atom.P, atom.Div:
			dom.SetAttr(a, "class", "button")
			dom.AddClass(up, "button-container")
		case atom.Strong, atom.Em:
			twoUp := up.Parent
			if twoUp == nil || twoUp.DataAtom != atom.P || !onlyChild(twoUp, up) {
				return
			}
			variant := "primary"
			if up.DataAtom == atom.Em {
				variant = "secondary"
			}
			dom.SetAttr(a, "class", "button "+variant)
			dom.AddClass(twoUp, "button-container")
		}
	})
}

// onlyChild reports whether child is the only child node of parent,
// ignoring whitespace-only text.
func onlyChild(parent, child *html.Node) bool {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			continue
		}
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return false
	}
	return true
}
