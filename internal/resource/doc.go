// Package resource manages the head elements a rendered storefront page
// references: preload hints, stylesheets and scripts.
//
// Lifecycle steps run on several goroutines at once (header, footer, lazy
// styles and fonts all load together), while the document itself may
// only be touched by one of them at a time. Loader therefore only queues
// elements; the orchestrator writes the queue into the document with
// Flush while it holds the page.
//
// Design decision: stylesheet and script loads can be verified with a
// HEAD request before they are referenced, so a missing asset surfaces as
// an error the caller can log, the way a browser reports a failed load.
// Concurrent loads of the same asset share one verification.
package resource
