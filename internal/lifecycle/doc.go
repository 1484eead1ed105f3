// Package lifecycle renders a storefront page in three phases.
//
// The eager phase does everything needed before the first paint: document
// language, rendering runtime, template classes, experimentation, page
// classification with its product and preload work, analytics context,
// main decoration with the first section, the largest-content signal and
// fonts for wide viewports.
//
// The lazy phase loads the remaining sections, header, footer, lazy
// styles, fonts and the analytics runtime, records the scroll target and
// view history and resolves the product record.
//
// The delayed phase is scheduled when the lazy phase starts and runs in
// the background; Orchestrator.Drain waits for it.
//
// # Document access
//
// A browser runs page scripts on one thread. Here several goroutines work
// on a page at once (header and footer load together, background tasks
// finish after Render returns), so the document is only reached through
// Page.Read and Page.Mutate. Collaborators that do not need the document,
// such as the resource loader and the data layer, synchronize themselves.
//
// Design decision: every phase is a Pipeline with continue-on-error. Step
// failures become PhaseResult errors and report warnings; the page still
// reaches the ready state. Only cancellation of the render context stops a
// phase early.
package lifecycle
