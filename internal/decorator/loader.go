package decorator

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/storefront/internal/dom"
)

// SectionCallback runs after a section's blocks are loaded and before the
// section is marked loaded.
type SectionCallback func(ctx context.Context, section *goquery.Selection) error

// LoadBlock loads a block's stylesheet and script and runs its handler.
// Failures are logged; the block is marked loaded either way so that a
// broken block never stalls its section. Blocks already loading or loaded
// are skipped.
func (d *Decorator) LoadBlock(ctx context.Context, block *goquery.Selection) {
	status := BlockStatus(block)
	if status == StatusLoading || status == StatusLoaded {
		return
	}
	block.SetAttr("data-block-status", StatusLoading)

	name := dom.BlockName(block.Nodes[0])
	if err := d.loadBlockAssets(ctx, name, block); err != nil {
		d.logger.Warn("failed to load block",
			"block", name,
			"error", err,
		)
	}
	block.SetAttr("data-block-status", StatusLoaded)
}

func (d *Decorator) loadBlockAssets(ctx context.Context, name string, block *goquery.Selection) error {
	base := d.codeBasePath + "/blocks/" + name + "/" + name
	if err := d.assets.LoadCSS(ctx, base+".css"); err != nil {
		return fmt.Errorf("stylesheet: %w", err)
	}
	if err := d.assets.LoadScript(ctx, base+".js", map[string]string{"type": "module"}); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	if h, ok := d.handlers[name]; ok {
		if err := h(ctx, block); err != nil {
			return fmt.Errorf("handler: %w", err)
		}
	}
	return nil
}

// LoadSection loads every block of an initialized section in order, runs
// the callback and then reveals the section. Sections that are already
// loading or loaded are skipped. Only context cancellation and callback
// errors are returned.
func (d *Decorator) LoadSection(ctx context.Context, section *goquery.Selection, callback SectionCallback) error {
	status := SectionStatus(section)
	if status != "" && status != StatusInitialized {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	section.SetAttr("data-section-status", StatusLoading)

	var err error
	Blocks(section).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		d.LoadBlock(ctx, block)
		return true
	})
	if err != nil {
		return err
	}

	if callback != nil {
		if err := callback(ctx, section); err != nil {
			return err
		}
	}

	section.SetAttr("data-section-status", StatusLoaded)
	section.RemoveAttr("style")
	return nil
}

// LoadSections loads every section under root in document order.
func (d *Decorator) LoadSections(ctx context.Context, root *goquery.Selection) error {
	sections := root.Find("div.section")
	for i := range sections.Length() {
		if err := d.LoadSection(ctx, sections.Eq(i), nil); err != nil {
			return err
		}
	}
	return nil
}

// LoadHeader builds, decorates and loads a header block inside <header>.
func (d *Decorator) LoadHeader(ctx context.Context, header *goquery.Selection) error {
	return d.loadChrome(ctx, header, "header")
}

// LoadFooter builds, decorates and loads a footer block inside <footer>.
func (d *Decorator) LoadFooter(ctx context.Context, footer *goquery.Selection) error {
	return d.loadChrome(ctx, footer, "footer")
}

func (d *Decorator) loadChrome(ctx context.Context, container *goquery.Selection, name string) error {
	if container.Length() == 0 {
		return fmt.Errorf("no <%s> element", name)
	}

	block := container.ChildrenFiltered("div." + name + ".block").First()
	if block.Length() == 0 {
		node := dom.BuildBlock(name, [][]dom.Cell{{{}}})
		container.AppendNodes(node)
		d.DecorateBlock(node)
		block = container.FindNodes(node)
	}

	d.LoadBlock(ctx, block)
	return nil
}
