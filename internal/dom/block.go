package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Cell is the content of one block cell.
type Cell []*html.Node

// TextCell is a cell holding a single text node.
func TextCell(text string) Cell {
	return Cell{NewText(text)}
}

// BuildBlock wraps content as a named block: a <div class="name"> with one
// <div> per row and one <div> per cell. Nodes in the cells are moved out of
// their current parents.
func BuildBlock(name string, rows [][]Cell) *html.Node {
	block := NewElement("div")
	AddClass(block, name)
	for _, row := range rows {
		rowEl := NewElement("div")
		for _, cell := range row {
			cellEl := NewElement("div")
			for _, n := range cell {
				Append(cellEl, n)
			}
			rowEl.AppendChild(cellEl)
		}
		block.AppendChild(rowEl)
	}
	return block
}

// ReadBlockConfig reads a two-column block as a key/value map. Keys are
// folded with ToClassName. A value cell holding links yields the href of the
// first link; otherwise the trimmed cell text is used.
func ReadBlockConfig(block *goquery.Selection) map[string]string {
	config := make(map[string]string)
	block.ChildrenFiltered("div").Each(func(_ int, row *goquery.Selection) {
		cols := row.ChildrenFiltered("div")
		if cols.Length() < 2 {
			return
		}
		key := ToClassName(cols.Eq(0).Text())
		if key == "" {
			return
		}
		value := cols.Eq(1)
		if href, ok := value.Find("a[href]").First().Attr("href"); ok {
			config[key] = href
			return
		}
		config[key] = strings.TrimSpace(value.Text())
	})
	return config
}

// BlockName returns the name of a decorated block, falling back to its first
// class when decoration has not run yet.
func BlockName(block *html.Node) string {
	if name, ok := LookupAttr(block, "data-block-name"); ok {
		return name
	}
	classes := Classes(block)
	if len(classes) == 0 {
		return ""
	}
	return classes[0]
}

// PrioritizeFirstImage marks the first image inside the selection as the
// largest-content candidate and returns its source. It returns false when
// the selection has no image.
func PrioritizeFirstImage(s *goquery.Selection) (string, bool) {
	img := s.Find("img").First()
	if img.Length() == 0 {
		return "", false
	}
	img.SetAttr("loading", "eager")
	img.SetAttr("fetchpriority", "high")
	return img.AttrOr("src", ""), true
}
