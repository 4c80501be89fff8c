// Package preview caches page previews for the open archive and fetches the
// missing ones.
//
// # Overview
//
// Previews are display-ready data URLs keyed by page identifier. They are
// fetched either page by page (Loader.Get) or as one streaming batch
// (Loader.Stream). Both paths write into the same Store, so a page fetched
// by one is immediately visible to the other, and a cached page is never
// requested again for the lifetime of the store binding.
//
// # Core Types
//
// Store:
//   - Map of page identifier to data URL behind a sync.RWMutex
//   - Bound to one archive path at a time
//   - Generation counter bumped by every Reset
//
// Loader:
//   - Get fetches one page; concurrent calls share one request
//   - Stream fetches every uncached page of a list with one request
//   - Loading reports outstanding single-page fetches per page
//
// Viewer:
//   - Tracks the page currently shown
//   - Drops results for a selection that has since moved on
//
// # Staleness
//
// A fetch reads the store's path and generation in one locked step. It
// refuses to start when the store belongs to another archive, and it writes
// its result with SetIf, which succeeds only while the generation is
// unchanged:
//
//	lookup(path, id) ──bound? no──→ ErrStale, no request
//	      │ yes (gen = N)
//	      ↓
//	GetPreview(path, id)
//	      ↓
//	SetIf(N, id, url) ──gen != N──→ ErrStale, result dropped
//	      │
//	      ↓
//	cached
//
// The owner of the store (the session) rebinds it with Reset(path) when
// the archive changes, in the same critical section that changes its own
// path, so no fetch can pair the old path with the new generation.
//
// # Shared Fetches
//
// Single-page fetches are deduplicated with singleflight, keyed by
// generation, path and page. The shared request runs detached from any
// one caller's context: a caller that gives up returns its ctx.Err()
// while the others keep waiting, and the result is still cached. The
// cache is checked again inside the shared call so a caller that missed
// it just as another fetch finished does not send a second request.
//
// # Streaming
//
// Stream reports progress as (loaded, total) where total is the length of
// the requested list and loaded is pre-seeded with the pages already
// cached. Per-file errors count as resolved and are logged. OnFinish fires
// exactly once per call: on the terminal event, when the stream ends
// without one, immediately when nothing is missing, or when the call is
// refused.
//
// # Usage Example
//
//	store := preview.NewStore("/comics/issue1.cbz")
//	loader := preview.NewLoader(client, store, logger)
//
//	url, err := loader.Get(ctx, "/comics/issue1.cbz", "001.jpg")
//
//	err = loader.Stream(ctx, "/comics/issue1.cbz", pageIDs, preview.Callbacks{
//		OnProgress: func(loaded, total int) { fmt.Printf("\r%d/%d", loaded, total) },
//	})
package preview
