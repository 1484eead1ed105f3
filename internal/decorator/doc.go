// Package decorator turns authored page content into decorated sections
// and blocks, and loads them incrementally.
//
// Decoration runs in a fixed order: buttons, icons, auto-blocks, sections,
// blocks. Every step is idempotent so section-level decoration can be
// repeated while content loads in stages.
package decorator
