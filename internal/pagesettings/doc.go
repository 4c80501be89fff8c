// Package pagesettings reconciles locally edited page settings with the
// settings persisted in the archive.
//
// # Overview
//
// Two maps are kept per archive:
//
//   - authoritative: what the archive contains as of the last load
//   - current: what the user sees, edits included
//
// A page is edited when the two disagree. A page with no authoritative
// entry counts as edited once its current settings carry anything. The
// page order of the archive is held explicitly, because the index written
// to ComicInfo.xml is a page's position in the archive and maps have no
// order.
//
// # Lifecycle
//
//	Clear ──→ (Restore saved edits) ──→ SetAuthoritative ──→ Update/Reset ...
//	                                           ↑                    │
//	                                           └──── reload ←── Save
//
// SetAuthoritative seeds current from the authoritative settings only when
// current is empty. A reload therefore never discards unsaved edits, and
// settings restored from preferences before the first load survive it.
//
// # Saving
//
// A save has two steps:
//
//	req, err := r.BeginSave(path)              // captures path + payload
//	bookmarks, err := r.Send(ctx, req, reload) // SaveSettings, then reload
//
// BeginSave builds the payload under the reconciler lock: every non-empty
// current entry, keyed by page, carrying its position in the archive.
// Entries for pages outside the archive are logged and left out. It also
// marks a save as running; a second BeginSave before Send completes fails
// with ErrSaveInProgress.
//
// Send skips the request entirely when nothing is edited. After a
// successful request it calls reload so the authoritative side is refreshed
// from what the archive now holds; current settings are never promoted
// locally. A failed request leaves both maps untouched.
//
// Save combines the two steps. Callers that switch archives concurrently
// use BeginSave under their own lock so the path and the payload always
// belong to the same archive.
//
// # Concurrency
//
// All methods are safe for concurrent use. The network call in Send runs
// without holding the lock, so the UI can keep reading settings while a
// save is out.
package pagesettings
