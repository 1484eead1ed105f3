package decorator

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/dom"
)

// AutoBlockBuilder synthesizes a block from content patterns in the main
// region. Build reports whether it changed the tree.
type AutoBlockBuilder interface {
	Name() string
	Build(main *goquery.Selection) (bool, error)
}

// AutoBlockResult is the outcome of one builder. A non-nil Err means the
// builder failed; the failure was logged and decoration continued.
type AutoBlockResult struct {
	Name  string
	Built bool
	Err   error
}

// BuildAutoBlocks runs every registered builder. A builder that fails or
// panics is logged and recorded; the remaining builders still run.
func (d *Decorator) BuildAutoBlocks(main *goquery.Selection) []AutoBlockResult {
	results := make([]AutoBlockResult, 0, len(d.autoBlocks))
	for _, b := range d.autoBlocks {
		built, err := runBuilder(b, main)
		if err != nil {
			d.logger.Error("auto block synthesis failed",
				"block", b.Name(),
				"error", err,
			)
		}
		results = append(results, AutoBlockResult{Name: b.Name(), Built: built, Err: err})
	}
	return results
}

func runBuilder(b AutoBlockBuilder, main *goquery.Selection) (built bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			built = false
			err = fmt.Errorf("auto block %s panicked: %v", b.Name(), r)
		}
	}()
	return b.Build(main)
}

// HeroBuilder promotes a leading picture and heading into a hero block
// when the picture comes before the first <h1> in document order.
type HeroBuilder struct{}

// Name returns "hero".
func (HeroBuilder) Name() string {
	return "hero"
}

// Build wraps the picture and heading in a new first section.
func (HeroBuilder) Build(main *goquery.Selection) (bool, error) {
	h1 := main.Find("h1").First()
	picture := main.Find("picture").First()
	if h1.Length() == 0 || picture.Length() == 0 {
		return false, nil
	}
	if h1.Closest(".hero").Length() > 0 {
		return false, nil
	}
	if !dom.Precedes(picture.Nodes[0], h1.Nodes[0]) {
		return false, nil
	}

	section := dom.NewElement("div")
	section.AppendChild(dom.BuildBlock("hero", [][]dom.Cell{{{picture.Nodes[0], h1.Nodes[0]}}}))
	main.PrependNodes(section)
	return true, nil
}
