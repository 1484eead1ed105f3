// Package index caches the paginated JSON indexes published by the
// content service (query-index, products, ...).
//
// An index is exposed as /<name>.json?limit=N&offset=M and answers with
// {limit, offset, total, data}. The Cache grows an in-memory snapshot one
// page per Fetch call until limit+offset reaches total.
//
// # Concurrency
//
// Many render goroutines ask for the same index at the same time. The
// cache keeps one pending load per name and every concurrent caller
// waits on it, so a page is requested once no matter how many callers
// there are.
//
// Design decision: snapshots are immutable. A load builds a new entry
// (old data plus the new page) and swaps it in, so a caller holding an
// earlier snapshot never sees it change underneath it. A failed load
// keeps the previous snapshot and clears the pending marker; the next
// Fetch retries the same offset.
//
// # Persistence
//
// With WithStore every successful load is written through to a Store
// before waiters are released. Warm seeds the cache from the store so a
// restarted process continues where the last one stopped.
package index
