// Package model defines the core data structures shared by the storefront
// renderer.
//
// This package contains the following main types:
//   - PageType: The classification of a page (CMS, Product, Category, Cart, Checkout)
//   - ProductRecord: The normalized product entity in its Simple or Complex shape
//   - IndexPage / IndexEntry: A page of a paginated index and its accumulated snapshot
//   - PreloadHint: A resource hint pushed into the document head
//   - RenderReport: The outcome of rendering one page
//
// Design decision: Models live in their own package so that the normalizer,
// the index cache, the lifecycle orchestrator and the report writers can all
// share them without import cycles. Every type serializes to JSON for the
// report writers and the SQLite store.
package model
