package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/storefront/internal/config"
	"github.com/nao1215/storefront/internal/database"
	"github.com/nao1215/storefront/internal/model"
)

// NewIndexCmd creates the index command.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [name]",
		Short: "Load a paginated content index",
		Long: `Index loads a JSON index such as query-index from the content service,
page by page, and prints the accumulated snapshot.

Pages are requested as /<name>.json?limit=<page-size>&offset=<offset>
until the service reports the last page or --pages pages were loaded.
Snapshots are stored in the database and the next run continues from the
stored offset.

Examples:
  # Load the query index
  storefront index -u https://shop.example.com query-index

  # Load at most two pages of 100 records
  storefront index -u https://shop.example.com --page-size 100 --pages 2 products

  # Print the records as JSON
  storefront index -u https://shop.example.com --json query-index

  # List the stored snapshots
  storefront index --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIndexCmd,
	}

	cmd.Flags().IntP("page-size", "p", config.DefaultIndexPageSize, "Number of records per index page")
	cmd.Flags().IntP("pages", "n", config.DefaultIndexPages, "Maximum number of pages to load")
	cmd.Flags().BoolP("json", "j", false, "Print the snapshot as JSON")
	cmd.Flags().BoolP("list", "L", false, "List the snapshots stored in the database")

	return cmd
}

// runIndexCmd executes the index command.
func runIndexCmd(cmd *cobra.Command, args []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if !list && len(args) == 0 {
		return errors.New("index name is required (use --list to see stored indexes)")
	}

	cfg, err := buildConfig(cmd, args, func(cfg *config.Config) error {
		var err error
		if cfg.IndexPageSize, err = cmd.Flags().GetInt("page-size"); err != nil {
			return err
		}
		if cfg.IndexPages, err = cmd.Flags().GetInt("pages"); err != nil {
			return err
		}
		cfg.JSONReport, err = cmd.Flags().GetBool("json")
		return err
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	if list {
		if !cfg.SaveToDB {
			return errors.New("--list needs the database (remove --no-db)")
		}
		db, err := openDB(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		return listIndexes(ctx, cmd.OutOrStdout(), db)
	}

	if cfg.BaseURL == "" {
		return errNoBaseURL
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	cache := newIndexCache(client, db, cfg, logger)
	if _, err := cache.Warm(ctx, args[0]); err != nil {
		logger.Warn("failed to read stored index", "index", args[0], "error", err)
	}
	entry, err := cache.FetchAll(ctx, args[0], cfg.IndexPageSize, cfg.IndexPages)
	if err != nil {
		return fmt.Errorf("failed to load index %s: %w", args[0], err)
	}

	if cfg.JSONReport {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}
	writeIndexEntry(cmd.OutOrStdout(), entry)
	return nil
}

// writeIndexEntry prints a human-readable index snapshot.
func writeIndexEntry(w io.Writer, entry *model.IndexEntry) {
	state := "partial"
	if entry.Complete {
		state = "complete"
	}
	fmt.Fprintf(w, "Index %s: %s records (%s, next offset %s)\n",
		entry.Name, humanize.Comma(int64(entry.Len())), state, humanize.Comma(int64(entry.Offset)))

	for _, rec := range entry.Data {
		if path, ok := rec["path"].(string); ok && path != "" {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}
}

// listIndexes prints the snapshots stored in the database.
func listIndexes(ctx context.Context, w io.Writer, db *database.DB) error {
	entries, err := db.ListIndexEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No indexes stored in the database.")
		fmt.Fprintln(w, "\nUse 'storefront index <name>' to load one.")
		return nil
	}

	fmt.Fprintf(w, "Stored indexes (%d):\n\n", len(entries))
	fmt.Fprintf(w, "  %-24s  %10s  %10s  %-8s  %s\n", "Name", "Records", "Offset", "State", "Updated")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 76))
	for _, e := range entries {
		state := "partial"
		if e.Complete {
			state = "complete"
		}
		fmt.Fprintf(w, "  %-24s  %10s  %10s  %-8s  %s\n",
			e.Name, humanize.Comma(int64(e.Records)), humanize.Comma(int64(e.Offset)), state, humanize.Time(e.UpdatedAt))
	}
	return nil
}
