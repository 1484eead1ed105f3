// Package analytics collects the records a storefront page pushes to its
// client data layer while it renders.
//
// The renderer pushes a pageContext record, a shoppingCartContext record
// and a deferred page-view event that snapshots the merged state. The
// deferred item only runs once the data layer runtime is active, which the
// lazy phase arranges; until then it waits in the queue exactly as it
// would in a browser that has not loaded the runtime script yet.
//
// HistoryTracker keeps the last product and category views in the
// visitor session.
package analytics
