package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parse reads an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*goquery.Document, error) {
	return Parse(strings.NewReader(s))
}

// Render serializes the whole document, doctype included.
func Render(doc *goquery.Document) (string, error) {
	var buf bytes.Buffer
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
	}
	return buf.String(), nil
}

// Main returns the main content region. The selection is empty when the
// document has no <main>.
func Main(doc *goquery.Document) *goquery.Selection {
	return doc.Find("main").First()
}

// Head returns the <head> node. The HTML parser always synthesizes one.
func Head(doc *goquery.Document) *html.Node {
	head := doc.Find("head").First()
	if head.Length() == 0 {
		return nil
	}
	return head.Nodes[0]
}

// Title returns the trimmed document title.
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("head > title").First().Text())
}

// SetLanguage sets the lang attribute of the root element.
func SetLanguage(doc *goquery.Document, lang string) {
	doc.Find("html").First().SetAttr("lang", lang)
}

// Language returns the lang attribute of the root element.
func Language(doc *goquery.Document) string {
	return doc.Find("html").First().AttrOr("lang", "")
}

// AddBodyClass adds a class to <body>.
func AddBodyClass(doc *goquery.Document, class string) {
	doc.Find("body").First().AddClass(class)
}

// FindByID returns the element with the given id. Ids are matched verbatim
// so fragments that are not valid CSS identifiers still resolve.
func FindByID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return id != "" && v == id
	}).First()
}
