// Package session implements the archive session: the state machine around
// the currently open comic archive.
//
// # Overview
//
// A Session owns everything scoped to one archive path:
//
//   - the page list and metadata, held in a state.Store
//   - the preview cache with its single-page and streaming loaders
//   - the page settings reconciler (unsaved edits vs. the archive)
//   - the change subscriptions and the per-archive preferences
//
// Switching path drops all of it and starts over for the new archive.
// Front ends (the terminal editor, the CLI commands) never talk to the
// archive service directly; they call Session methods and render
// Snapshot values.
//
// # State Machine
//
//	           SetPath("")
//	  ┌──────────────────────────────┐
//	  ↓                              │
//	Idle ──SetPath(p)──→ Loading ──→ Loaded   (soft error possible)
//	                        │    └─→ Failed   (page list empty)
//	                        ↑          │
//	                        └─Reload───┘
//
// Load is the only transition that talks to the service. A soft error
// (unparsable ComicInfo.xml, missing archive) still counts as Loaded: the
// page list is usable and the error is shown next to it. A missing archive
// is additionally registered with WatchForCreation so an "archive-created"
// notification can bring it in later. Transport failures move the session
// to Failed; the page list is cleared but unsaved edits are kept.
//
// # Staleness
//
// Staleness is detected with counters rather than cancellation:
//
//   - every path switch bumps a generation
//   - every load bumps a sequence number
//
// A load result whose counters no longer match is dropped on arrival, so a
// slow response for an old archive or a superseded reload never overwrites
// newer state. Reads that must agree with each other (the path and the
// settings sent by Save, the path and page list used for previews) are
// taken together under the session lock.
//
// The preview store is rebound to the new path inside the same critical
// section that bumps the generation. A fetch started for the previous
// archive therefore either fails its path check up front or has its write
// refused by the generation check; it returns preview.ErrStale and never
// lands in the new archive's cache.
//
// # Saving
//
// Save captures the target path and the payload in one step
// (pagesettings.Reconciler.BeginSave), sends it, and reloads the archive
// so the authoritative settings reflect what was written. When the user
// switches archive while the request is out, the result is recorded for
// the archive that was saved and the reload is skipped:
//
//	Save(A) ──capture(A, edits of A)──→ SaveSettings(A)
//	                 SetPath(B) ───────────┤
//	                                       ↓
//	                      bookmarks cached for A, no reload of B
//
// # Events
//
// Change notifications ("reload-archive", "archive-created") are
// subscribed per path. The old subscriptions are fully removed before new
// ones are installed (switches are serialised by a dedicated mutex), and a
// notification is acted on only when its payload is the current path and
// its generation is still live. Handlers reload synchronously on the
// event goroutine.
//
// # Preferences
//
// With a comic.KeyValueStore configured, each archive keeps its own
// preferences namespace: the selected page, the table of contents page,
// list filters, the cached bookmark list and the unsaved page settings.
// The latter are written after every edit and restored on SetPath, so
// edits survive a restart even before they are saved to the archive.
//
// # Listeners
//
// Subscribe registers a callback that receives a fresh Snapshot after
// every state change. Callbacks run on the goroutine that made the change
// and must not block; the terminal editor forwards them to its program as
// messages.
//
// # Lifecycle
//
//	s := session.New(session.Options{Service: client, Events: events, Prefs: kv})
//	defer s.Close(ctx)
//
//	if err := s.SetPath(ctx, "/comics/issue1.cbz"); err != nil {
//		return err
//	}
//	s.UpdatePage(ctx, "001.jpg", comic.SetType(comic.PageFrontCover))
//	bookmarks, err := s.Save(ctx)
//
// Close is terminal: subscriptions and the service-side watch are removed
// and later operations return ErrClosed.
package session
