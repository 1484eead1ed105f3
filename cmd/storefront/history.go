package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/storefront/internal/database"
	"github.com/nao1215/storefront/internal/model"
	"github.com/nao1215/storefront/internal/report"
)

// errNoHistory is returned when the database has no render reports yet.
var errNoHistory = errors.New("no render history (use 'storefront render' to record some)")

// NewHistoryCmd creates the history command.
// This command reads render reports stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show and compare stored render reports",
		Long: `History lists the render reports stored by 'storefront render'.

Without arguments it lists every rendered URL. With a URL it lists the
renders of that page, newest first. --diff compares the two newest
renders of the page: page type, preload hints, warnings and size.

Examples:
  # List rendered URLs
  storefront history

  # List the renders of a page
  storefront history http://localhost/adb150

  # Compare the two newest renders of a page
  storefront history --diff http://localhost/adb150

  # Show one stored report
  storefront history --id 0b6c1c5e-3f5a-4a51-9c39-2b1f6b0b7a8e`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("diff", "d", false, "Compare the two newest renders of the URL")
	cmd.Flags().StringP("id", "i", "", "Show the stored report with this ID")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	if diff && len(args) == 0 {
		return errors.New("--diff needs a URL")
	}

	cfg, err := buildConfig(cmd, args, nil)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrNotFound) {
		return errNoHistory
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Debug("database opened", "path", db.Path())

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case id != "":
		return showReport(ctx, out, db, id, asJSON)
	case len(args) == 0:
		return listRenderedURLs(ctx, out, db)
	case diff:
		return diffLatest(ctx, out, db, args[0], asJSON)
	default:
		return listRenderHistory(ctx, out, db, args[0])
	}
}

// listRenderedURLs lists every URL that has stored reports.
func listRenderedURLs(ctx context.Context, w io.Writer, db *database.DB) error {
	urls, err := db.ListRenderedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list urls: %w", err)
	}
	if len(urls) == 0 {
		return errNoHistory
	}

	fmt.Fprintf(w, "Rendered pages (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(w, "  • %s\n", u)
	}
	fmt.Fprintln(w, "\nUse 'storefront history <url>' to see the renders of a page.")
	return nil
}

// listRenderHistory lists the renders of one URL.
func listRenderHistory(ctx context.Context, w io.Writer, db *database.DB, pageURL string) error {
	history, err := db.GetRenderHistory(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("failed to get render history: %w", err)
	}
	if len(history) == 0 {
		fmt.Fprintf(w, "No render history found for %s\n", pageURL)
		return nil
	}

	fmt.Fprintf(w, "Render history for %s (%d renders):\n\n", pageURL, len(history))
	fmt.Fprintf(w, "  %-36s  %-20s  %s\n", "ID", "Rendered", "Page type")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 70))
	for _, meta := range history {
		fmt.Fprintf(w, "  %-36s  %-20s  %s\n",
			meta.ID, meta.RenderedAt.Local().Format(time.DateTime), meta.PageType)
	}
	return nil
}

// showReport prints one stored report.
func showReport(ctx context.Context, w io.Writer, db *database.DB, id string, asJSON bool) error {
	r, err := db.GetRenderReport(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}
	var writer report.Writer = report.NewSimpleWriter(w, report.WithVerbose(true))
	if asJSON {
		writer = report.NewJSONWriter(w, report.WithPrettyPrint())
	}
	_, err = writer.Write(r)
	return err
}

// reportDiff is the difference between two renders of the same page.
type reportDiff struct {
	URL          string         `json:"url"`
	FromID       string         `json:"from_id"`
	ToID         string         `json:"to_id"`
	FromType     model.PageType `json:"from_type"`
	ToType       model.PageType `json:"to_type"`
	AddedHints   []string       `json:"added_hints,omitempty"`
	RemovedHints []string       `json:"removed_hints,omitempty"`
	NewWarnings  []string       `json:"new_warnings,omitempty"`
	SizeDelta    int            `json:"size_delta"`
	HashChanged  bool           `json:"hash_changed"`
}

// Changed reports whether the renders differ.
func (d *reportDiff) Changed() bool {
	return d.FromType != d.ToType ||
		len(d.AddedHints) > 0 || len(d.RemovedHints) > 0 ||
		len(d.NewWarnings) > 0 || d.HashChanged
}

// compareReports computes what changed from older to newer.
func compareReports(older, newer *model.RenderReport) *reportDiff {
	d := &reportDiff{
		URL:         newer.URL,
		FromID:      older.ID,
		ToID:        newer.ID,
		FromType:    older.PageType,
		ToType:      newer.PageType,
		SizeDelta:   newer.Size - older.Size,
		HashChanged: older.ContentHash != newer.ContentHash,
	}

	oldHints := hintKeys(older.Hints)
	newHints := hintKeys(newer.Hints)
	for _, h := range newHints {
		if !slices.Contains(oldHints, h) {
			d.AddedHints = append(d.AddedHints, h)
		}
	}
	for _, h := range oldHints {
		if !slices.Contains(newHints, h) {
			d.RemovedHints = append(d.RemovedHints, h)
		}
	}
	for _, w := range newer.Warnings {
		if !slices.Contains(older.Warnings, w) {
			d.NewWarnings = append(d.NewWarnings, w)
		}
	}
	return d
}

// hintKeys identifies hints by destination and href.
func hintKeys(hints []model.PreloadHint) []string {
	keys := make([]string, len(hints))
	for i, h := range hints {
		keys[i] = h.As + " " + h.Href
	}
	return keys
}

// diffLatest compares the two newest renders of pageURL.
func diffLatest(ctx context.Context, w io.Writer, db *database.DB, pageURL string, asJSON bool) error {
	history, err := db.GetRenderHistory(ctx, pageURL)
	if err != nil {
		return fmt.Errorf("failed to get render history: %w", err)
	}
	if len(history) < 2 {
		return fmt.Errorf("need at least two renders of %s to compare, found %d", pageURL, len(history))
	}

	newer, err := db.GetRenderReport(ctx, history[0].ID)
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}
	older, err := db.GetRenderReport(ctx, history[1].ID)
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}

	d := compareReports(older, newer)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	writeDiff(w, d, older.RenderedAt, newer.RenderedAt)
	return nil
}

// writeDiff prints a human-readable diff.
func writeDiff(w io.Writer, d *reportDiff, from, to time.Time) {
	fmt.Fprintf(w, "Comparing renders of %s\n", d.URL)
	fmt.Fprintf(w, "  from: %s (%s)\n", d.FromID, humanize.Time(from))
	fmt.Fprintf(w, "  to:   %s (%s)\n\n", d.ToID, humanize.Time(to))

	if !d.Changed() {
		fmt.Fprintln(w, "No changes.")
		return
	}

	if d.FromType != d.ToType {
		fmt.Fprintf(w, "Page type: %s -> %s\n", d.FromType, d.ToType)
	}
	for _, h := range d.AddedHints {
		fmt.Fprintf(w, "  + %s\n", h)
	}
	for _, h := range d.RemovedHints {
		fmt.Fprintf(w, "  - %s\n", h)
	}
	for _, warning := range d.NewWarnings {
		fmt.Fprintf(w, "  ! %s\n", warning)
	}
	if d.HashChanged {
		sign := "+"
		size := d.SizeDelta
		if size < 0 {
			sign = "-"
			size = -size
		}
		fmt.Fprintf(w, "Document changed (%s%s)\n", sign, humanize.Bytes(uint64(size)))
	}
}
