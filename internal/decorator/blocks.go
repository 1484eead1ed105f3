package decorator

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/storefront/internal/dom"
)

// DecorateBlocks decorates every block inside the decorated sections.
func (d *Decorator) DecorateBlocks(main *goquery.Selection) {
	main.Find("div.section > div > div").Each(func(_ int, s *goquery.Selection) {
		d.DecorateBlock(s.Nodes[0])
	})
}

// DecorateBlock marks a block element: it gains the block class, its name
// and status as data attributes, and its wrapper and section get
// name-wrapper and name-container classes. Blocks without a class or with a
// status are skipped.
func (d *Decorator) DecorateBlock(block *html.Node) {
	classes := dom.Classes(block)
	if len(classes) == 0 {
		return
	}
	if _, ok := dom.LookupAttr(block, "data-block-status"); ok {
		return
	}

	name := classes[0]
	dom.AddClass(block, "block")
	dom.SetAttr(block, "data-block-name", name)
	dom.SetAttr(block, "data-block-status", StatusInitialized)

	if wrapper := block.Parent; wrapper != nil {
		dom.AddClass(wrapper, name+"-wrapper")
	}
	if section := closestSection(block); section != nil {
		dom.AddClass(section, name+"-container")
	}
}

func closestSection(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && dom.HasClass(p, "section") {
			return p
		}
	}
	return nil
}

// Blocks returns the decorated blocks inside root in document order.
func Blocks(root *goquery.Selection) *goquery.Selection {
	return root.Find("div.block")
}

// BlockStatus returns the data-block-status of a block.
func BlockStatus(block *goquery.Selection) string {
	return block.AttrOr("data-block-status", "")
}
