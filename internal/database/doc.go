// Package database provides SQLite-based storage for storefront.
//
// The DB stores:
//   - Index snapshots, so the index cache can warm-start across runs
//   - Render reports, for comparing renders of a URL over time
//
// Design decision: SQLite (via modernc.org/sqlite) keeps the store a single
// CGO-free file next to the user's data, and WAL mode lets the report
// writer and index cache share it.
package database
