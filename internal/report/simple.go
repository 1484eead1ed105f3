package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/storefront/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
//
// Design decision: plain text with ASCII rules rather than ANSI colors, so
// output can be piped to files or other tools unchanged.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty sections are shown.
	showEmpty bool

	// verbose adds hint hrefs and analytics entries.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one render report in human-readable format.
func (w *SimpleWriter) Write(report *model.RenderReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writePhases(&sb, report)
	w.writeHints(&sb, report)
	w.writeProduct(&sb, report)
	w.writeWarnings(&sb, report)
	w.writeAnalytics(&sb, report)
	writeRule(&sb, "=")

	return w.output.Write([]byte(sb.String()))
}

func writeRule(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	writeRule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	writeRule(sb, "-")
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RenderReport) {
	sb.WriteString("\n")
	writeRule(sb, "=")
	sb.WriteString("                       STOREFRONT RENDER REPORT\n")
	writeRule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "URL:          %s\n", report.URL)
	fmt.Fprintf(sb, "Page Type:    %s\n", report.PageType)
	fmt.Fprintf(sb, "Language:     %s\n", orDash(report.Language))
	fmt.Fprintf(sb, "Title:        %s\n", orDash(report.Title))
	fmt.Fprintf(sb, "Rendered At:  %s\n", report.RenderedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Size:         %s\n", humanize.Bytes(uint64(max(report.Size, 0))))
	if report.ScrollTarget != "" {
		fmt.Fprintf(sb, "Scroll To:    #%s\n", report.ScrollTarget)
	}

	switch {
	case report.Error != "":
		fmt.Fprintf(sb, "Status:       ERROR - %s\n", report.Error)
	case report.HasErrors():
		sb.WriteString("Status:       READY (with step errors)\n")
	default:
		sb.WriteString("Status:       READY\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePhases(sb *strings.Builder, report *model.RenderReport) {
	if len(report.Phases) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, "PHASES")

	if len(report.Phases) == 0 {
		sb.WriteString("  No phases recorded\n\n")
		return
	}
	for _, p := range report.Phases {
		indicator := "+"
		if p.Failed() {
			indicator = "!"
		}
		fmt.Fprintf(sb, "  [%s] %-8s %d steps in %s\n", indicator, p.Name, len(p.Steps), p.Duration)
		for _, e := range p.Errors {
			fmt.Fprintf(sb, "      %s\n", e)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHints(sb *strings.Builder, report *model.RenderReport) {
	if len(report.Hints) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, "PRELOAD HINTS")

	fmt.Fprintf(sb, "  %d hint(s)\n", len(report.Hints))
	if w.verbose {
		for _, h := range report.Hints {
			fmt.Fprintf(sb, "  * [%s] %s\n", h.As, h.Href)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeProduct(sb *strings.Builder, report *model.RenderReport) {
	p := report.Product
	if p == nil {
		return
	}
	writeSection(sb, "PRODUCT")

	fmt.Fprintf(sb, "  SKU:    %s\n", p.SKU)
	fmt.Fprintf(sb, "  Name:   %s\n", orDash(p.Name))
	fmt.Fprintf(sb, "  Type:   %s\n", p.TypeName)
	fmt.Fprintf(sb, "  Price:  %s\n", formatPrice(p))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeWarnings(sb *strings.Builder, report *model.RenderReport) {
	if len(report.Warnings) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, "WARNINGS")

	if len(report.Warnings) == 0 {
		sb.WriteString("  No warnings\n\n")
		return
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(sb, "  * %s\n", warning)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeAnalytics(sb *strings.Builder, report *model.RenderReport) {
	if !w.verbose || len(report.Analytics) == 0 {
		return
	}
	writeSection(sb, "ANALYTICS")
	for _, entry := range report.Analytics {
		fmt.Fprintf(sb, "  * %s\n", strings.ReplaceAll(entryLabel(entry), "`", ""))
	}
	sb.WriteString("\n")
}

// WriteSummary outputs the batch summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	writeRule(&sb, "=")
	sb.WriteString("                       STOREFRONT BATCH SUMMARY\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Pages:    %s\n", humanize.Comma(int64(summary.Pages)))
	fmt.Fprintf(&sb, "Hints:    %s\n", humanize.Comma(int64(summary.Hints)))
	fmt.Fprintf(&sb, "Size:     %s\n", humanize.Bytes(uint64(max(summary.Bytes, 0))))
	fmt.Fprintf(&sb, "Failed:   %d\n\n", len(summary.Failed))

	writeSection(&sb, "PAGES")
	for _, r := range summary.Reports {
		indicator := "+"
		if r.HasErrors() {
			indicator = "!"
		}
		fmt.Fprintf(&sb, "  [%s] %-9s %s\n", indicator, r.PageType, r.URL)
	}
	sb.WriteString("\n")
	writeRule(&sb, "=")

	return w.output.Write([]byte(sb.String()))
}
