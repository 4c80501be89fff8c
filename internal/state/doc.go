// Package state provides thread-safe state for the open archive.
//
// # Overview
//
// The session writes load results into a Store; the UI and the CLI read
// Snapshots. A snapshot is a copy, so readers never observe a load half
// applied.
//
//	Producer (Session):            Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ OpenArchive()  │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	└────────────────┘  (mutex)   └─────────────────┘
//
// # Status
//
//	Idle ──SetPath──→ Idle ──Begin──→ Loading ──Update──→ Loaded | Failed
//
// Loaded may still carry a LastError: a soft problem such as a malformed
// ComicInfo.xml leaves the page list usable. Failed always carries one and
// an empty page list.
//
// # Defensive Copying
//
// Snapshot clones the page list and bookmarks and wraps LastError in a new
// error value that still unwraps to the original, so errors.As keeps
// working on the copy.
//
// The Store is safe to use as a zero value.
package state
