package decorator

import (
	"maps"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/storefront/internal/dom"
)

// Section and block status values stored in data-section-status and
// data-block-status.
const (
	StatusInitialized = "initialized"
	StatusLoading     = "loading"
	StatusLoaded      = "loaded"
)

const hiddenStyle = "display: none"

// DecorateSections turns each top-level <div> of the main region into a
// section. Consecutive default content (anything but a classed <div>) is
// grouped into a default-content-wrapper; every classed <div> gets its own
// wrapper. A section-metadata block is folded into section classes and data
// attributes and then removed. Sections that already carry a status are
// skipped.
func (d *Decorator) DecorateSections(main *goquery.Selection) {
	main.ChildrenFiltered("div").Each(func(_ int, s *goquery.Selection) {
		section := s.Nodes[0]
		if _, ok := dom.LookupAttr(section, "data-section-status"); ok {
			return
		}

		var wrappers []*html.Node
		defaultContent := false
		for _, child := range dom.Children(section) {
			isBlock := child.DataAtom == atom.Div && dom.Attr(child, "class") != ""
			if isBlock || !defaultContent || len(wrappers) == 0 {
				wrapper := dom.NewElement("div")
				wrappers = append(wrappers, wrapper)
				defaultContent = !isBlock
				if defaultContent {
					dom.AddClass(wrapper, "default-content-wrapper")
				}
			}
			dom.Append(wrappers[len(wrappers)-1], child)
		}
		dom.RemoveChildren(section)
		for _, w := range wrappers {
			section.AppendChild(w)
		}

		dom.AddClass(section, "section")
		dom.SetAttr(section, "data-section-status", StatusInitialized)
		dom.SetAttr(section, "style", hiddenStyle)

		applySectionMetadata(s)
	})
}

func applySectionMetadata(section *goquery.Selection) {
	meta := section.Find("div.section-metadata").First()
	if meta.Length() == 0 {
		return
	}
	node := section.Nodes[0]
	config := dom.ReadBlockConfig(meta)
	for _, key := range slices.Sorted(maps.Keys(config)) {
		value := config[key]
		if key == "style" {
			for _, style := range strings.Split(value, ",") {
				dom.AddClass(node, dom.ToClassName(style))
			}
			continue
		}
		dom.SetAttr(node, "data-"+key, value)
	}

	wrapper := meta.Parent()
	if wrapper.Length() > 0 && wrapper.Nodes[0] != node {
		wrapper.Remove()
		return
	}
	meta.Remove()
}

// SectionStatus returns the data-section-status of a section.
func SectionStatus(section *goquery.Selection) string {
	return section.AttrOr("data-section-status", "")
}
