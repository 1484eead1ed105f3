package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/storefront/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "storefront.db"

// DB provides SQLite-based storage for index snapshots and render reports.
//
// Design decision: a single database file holds both tables. Index
// snapshots are keyed by index name and replaced on every save; render
// reports are append-only so the history of a URL can be compared across
// runs.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping ErrNotFound is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database %s: %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *DB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *DB) Close() error {
	return sdb.db.Close()
}

func (sdb *DB) createTables() error {
	schema := `
	-- Index snapshots, one row per index name
	CREATE TABLE IF NOT EXISTS index_entries (
		name TEXT PRIMARY KEY,
		"offset" INTEGER NOT NULL DEFAULT 0,
		complete INTEGER NOT NULL DEFAULT 0,
		data_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Render reports store complete reports as JSON
	CREATE TABLE IF NOT EXISTS render_reports (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		page_type TEXT NOT NULL,
		rendered_at DATETIME NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_url ON render_reports(url);
	CREATE INDEX IF NOT EXISTS idx_reports_rendered_at ON render_reports(rendered_at);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveIndexEntry inserts or replaces the snapshot of an index.
func (sdb *DB) SaveIndexEntry(ctx context.Context, entry *model.IndexEntry) error {
	if entry == nil || entry.Name == "" {
		return errors.New("index entry without name")
	}
	dataJSON, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("failed to serialize index data: %w", err)
	}

	query := `
	INSERT INTO index_entries (name, "offset", complete, data_json)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		"offset" = excluded."offset",
		complete = excluded.complete,
		data_json = excluded.data_json,
		updated_at = CURRENT_TIMESTAMP
	`

	_, err = sdb.db.ExecContext(ctx, query,
		entry.Name,
		entry.Offset,
		entry.Complete,
		string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save index entry %s: %w", entry.Name, err)
	}
	return nil
}

// GetIndexEntry retrieves the snapshot of an index. It returns an error
// wrapping ErrNotFound when the index was never saved.
func (sdb *DB) GetIndexEntry(ctx context.Context, name string) (*model.IndexEntry, error) {
	query := `
	SELECT name, "offset", complete, data_json
	FROM index_entries
	WHERE name = ?
	`

	entry := &model.IndexEntry{}
	var dataJSON string
	err := sdb.db.QueryRowContext(ctx, query, name).Scan(
		&entry.Name,
		&entry.Offset,
		&entry.Complete,
		&dataJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index entry: %w", err)
	}

	if err := json.Unmarshal([]byte(dataJSON), &entry.Data); err != nil {
		return nil, fmt.Errorf("failed to parse index data: %w", err)
	}
	if entry.Data == nil {
		entry.Data = []model.IndexRecord{}
	}
	return entry, nil
}

// IndexSummary describes a stored index without its records.
type IndexSummary struct {
	Name      string
	Records   int
	Offset    int
	Complete  bool
	UpdatedAt time.Time
}

// ListIndexEntries returns a summary of every stored index, ordered by name.
func (sdb *DB) ListIndexEntries(ctx context.Context) ([]IndexSummary, error) {
	query := `
	SELECT name, json_array_length(data_json), "offset", complete, updated_at
	FROM index_entries
	ORDER BY name
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list index entries: %w", err)
	}
	defer rows.Close()

	var results []IndexSummary
	for rows.Next() {
		var s IndexSummary
		var updatedAt string
		if err := rows.Scan(&s.Name, &s.Records, &s.Offset, &s.Complete, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		s.UpdatedAt = parseTimestamp(updatedAt)
		results = append(results, s)
	}
	return results, rows.Err()
}

// SaveRenderReport stores a render report. Saving the same report ID again
// replaces the stored copy.
func (sdb *DB) SaveRenderReport(ctx context.Context, report *model.RenderReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO render_reports (id, url, page_type, rendered_at, report_json)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		report_json = excluded.report_json
	`

	_, err = sdb.db.ExecContext(ctx, query,
		report.ID,
		report.URL,
		report.PageType.String(),
		report.RenderedAt.UTC().Format(timeLayout),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save render report: %w", err)
	}
	return nil
}

// GetRenderReport retrieves a render report by ID. It returns an error
// wrapping ErrNotFound for unknown IDs.
func (sdb *DB) GetRenderReport(ctx context.Context, id string) (*model.RenderReport, error) {
	query := `
	SELECT report_json FROM render_reports
	WHERE id = ?
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render report: %w", err)
	}
	return decodeReport(reportJSON)
}

// GetLatestRenderReport retrieves the most recent report for a URL.
func (sdb *DB) GetLatestRenderReport(ctx context.Context, url string) (*model.RenderReport, error) {
	query := `
	SELECT report_json FROM render_reports
	WHERE url = ?
	ORDER BY rendered_at DESC
	LIMIT 1
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, url).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report for %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render report: %w", err)
	}
	return decodeReport(reportJSON)
}

// ReportMetadata contains summary information about a render report.
// This is used for displaying render history without loading the full
// report.
type ReportMetadata struct {
	ID         string
	URL        string
	PageType   string
	RenderedAt time.Time
}

// GetRenderHistory returns report metadata for a URL, newest first.
func (sdb *DB) GetRenderHistory(ctx context.Context, url string) ([]ReportMetadata, error) {
	query := `
	SELECT id, url, page_type, rendered_at
	FROM render_reports
	WHERE url = ?
	ORDER BY rendered_at DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get render history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var renderedAt string
		if err := rows.Scan(&meta.ID, &meta.URL, &meta.PageType, &renderedAt); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.RenderedAt = parseTimestamp(renderedAt)
		results = append(results, meta)
	}
	return results, rows.Err()
}

// ListRenderedURLs returns every URL with at least one stored report.
func (sdb *DB) ListRenderedURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT url FROM render_reports
	ORDER BY url
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func decodeReport(reportJSON string) (*model.RenderReport, error) {
	var report model.RenderReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// timeLayout has a fixed width so stored times sort as text.
const timeLayout = "2006-01-02 15:04:05.000000000"

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries every known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
