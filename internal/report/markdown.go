package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/storefront/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one render report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RenderReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAlert(md, report)
	w.writePhases(md, report)
	w.writeHints(md, report)
	w.writeProduct(md, report)
	w.writeWarnings(md, report)
	w.writeAnalytics(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RenderReport) {
	md.H1("Storefront Render Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + report.URL + "`"},
		{"Page Type", report.PageType.String()},
		{"Language", orDash(report.Language)},
		{"Title", orDash(report.Title)},
		{"Rendered At", report.RenderedAt.Format("2006-01-02 15:04:05 MST")},
		{"Size", humanize.Bytes(uint64(max(report.Size, 0)))},
		{"LCP Emitted", yesNo(report.LCPEmitted)},
		{"Fonts Loaded", yesNo(report.FontsLoaded)},
		{"Status", statusText(report)},
	}
	if report.ScrollTarget != "" {
		rows = append(rows, []string{"Scroll Target", "#" + report.ScrollTarget})
	}
	if report.ContentHash != "" {
		rows = append(rows, []string{"Content Hash", "`" + report.ContentHash + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func statusText(report *model.RenderReport) string {
	switch {
	case report.Error != "":
		return "❌ Error - " + report.Error
	case report.HasErrors():
		return "⚠️ Ready with step errors"
	default:
		return "✅ Ready"
	}
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RenderReport) {
	failed := 0
	for _, p := range report.Phases {
		failed += len(p.Errors)
	}
	switch {
	case report.Error != "":
		md.Cautionf("Rendering stopped: %s", report.Error)
	case failed > 0:
		md.Warningf("%d step(s) failed; the page still reached the ready state.", failed)
	case len(report.Warnings) > 0:
		md.Importantf("%d warning(s) recorded during rendering.", len(report.Warnings))
	default:
		md.Tip("All phases completed without errors.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePhases(md *markdown.Markdown, report *model.RenderReport) {
	md.H2("Phases")
	md.PlainText("")

	if len(report.Phases) == 0 {
		md.PlainText("No phase was recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Phases))
	for i, p := range report.Phases {
		errs := "-"
		if len(p.Errors) > 0 {
			errs = truncateString(strings.Join(p.Errors, "; "), 80)
		}
		rows[i] = []string{
			p.Name,
			strings.Join(p.Steps, ", "),
			p.Duration.Round(time.Microsecond).String(),
			errs,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Phase", "Steps", "Duration", "Errors"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeHints(md *markdown.Markdown, report *model.RenderReport) {
	md.H2("Preload Hints")
	md.PlainText("")

	if len(report.Hints) == 0 {
		md.PlainText("No preload hints were added.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Hints))
	counts := make(map[string]uint64)
	for i, h := range report.Hints {
		rows[i] = []string{
			"`" + truncateString(h.Href, 70) + "`",
			h.As,
			orDash(h.CrossOrigin),
			yesNo(h.ImageSrcSet != ""),
		}
		counts[h.As]++
	}
	md.Table(markdown.TableSet{
		Header: []string{"Href", "As", "Cross Origin", "Srcset"},
		Rows:   rows,
	})
	md.PlainText("")

	writePieChart(md, "Preload Destinations", counts)
}

func (w *MarkdownWriter) writeProduct(md *markdown.Markdown, report *model.RenderReport) {
	p := report.Product
	if p == nil {
		return
	}

	md.H2("Product")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"SKU", "`" + p.SKU + "`"},
			{"Name", orDash(p.Name)},
			{"Type", string(p.TypeName)},
			{"Price", formatPrice(p)},
			{"Images", strconv.Itoa(len(p.Images))},
			{"Options", strconv.Itoa(len(p.Options))},
		},
	})
	md.PlainText("")

	if p.Description != "" {
		md.Details("Description", p.Description)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeWarnings(md *markdown.Markdown, report *model.RenderReport) {
	if len(report.Warnings) == 0 {
		return
	}
	md.H2("Warnings")
	md.PlainText("")
	md.BulletList(report.Warnings...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeAnalytics(md *markdown.Markdown, report *model.RenderReport) {
	md.H2("Analytics")
	md.PlainText("")

	if len(report.Analytics) == 0 {
		md.PlainText("No data layer entries were pushed.")
		md.PlainText("")
		return
	}

	items := make([]string, len(report.Analytics))
	for i, entry := range report.Analytics {
		items[i] = entryLabel(entry)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// entryLabel names a data layer entry by its event or its keys.
func entryLabel(entry map[string]any) string {
	if ev, ok := entry["event"].(string); ok {
		return "event `" + ev + "`"
	}
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, "`"+k+"`")
	}
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}

// WriteSummary outputs the batch summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Storefront Batch Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated At", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages", humanize.Comma(int64(summary.Pages))},
			{"Preload Hints", humanize.Comma(int64(summary.Hints))},
			{"Rendered Size", humanize.Bytes(uint64(max(summary.Bytes, 0)))},
			{"Failed", strconv.Itoa(len(summary.Failed))},
		},
	})
	md.PlainText("")

	if summary.HasFailures() {
		md.Warningf("%d of %d page(s) had errors.", len(summary.Failed), summary.Pages)
	} else {
		md.Tip("Every page rendered without errors.")
	}
	md.PlainText("")

	counts := make(map[string]uint64, len(summary.ByType))
	for name, n := range summary.ByType {
		counts[name] = uint64(n)
	}
	md.H2("Page Types")
	md.PlainText("")
	writePieChart(md, "Page Types", counts)

	md.H2("Pages")
	md.PlainText("")
	rows := make([][]string, len(summary.Reports))
	for i, r := range summary.Reports {
		rows[i] = []string{
			"`" + truncateString(r.URL, 60) + "`",
			r.PageType.String(),
			strconv.Itoa(r.HintCount()),
			humanize.Bytes(uint64(max(r.Size, 0))),
			statusText(r),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Type", "Hints", "Size", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.HasFailures() {
		md.H2("Failed Pages")
		md.PlainText("")
		md.BulletList(summary.Failed...)
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of counts, sorted by label.
func writePieChart(md *markdown.Markdown, title string, counts map[string]uint64) {
	if len(counts) == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		chart.LabelAndIntValue(label, counts[label])
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [storefront](https://github.com/nao1215/storefront)*")
}

func formatPrice(p *model.ProductRecord) string {
	switch {
	case p.Price != nil:
		return fmt.Sprintf("%.2f %s", p.Price.Final.Value, p.Price.Final.Currency)
	case p.PriceRange != nil:
		lo := p.PriceRange.Minimum.Final.Amount
		hi := p.PriceRange.Maximum.Final.Amount
		if lo.Value == hi.Value {
			return fmt.Sprintf("%.2f %s", lo.Value, lo.Currency)
		}
		return fmt.Sprintf("%.2f - %.2f %s", lo.Value, hi.Value, lo.Currency)
	default:
		return "-"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
