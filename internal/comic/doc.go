// Package comic holds the domain types shared by every cbzmeta component:
// page roles and settings, the ComicInfo metadata document, the error
// taxonomy of the archive service and the interfaces through which the core
// reaches its collaborators.
//
// # Boundaries
//
//   - ArchiveService: the remote service that reads and writes archives.
//   - EventSource: change notifications ("reload-archive",
//     "archive-created") whose payload is an archive path.
//   - KeyValueStore: persisted user preferences, namespaced per archive.
//
// Implementations live in packages named after what they talk to
// (backend, natsevents, sqlite) and in mock for tests.
//
// # Page settings
//
// A PageSettings value is empty when its type is Unknown, it is not a
// double page and its bookmark is blank. Empty is the sentinel for "no
// metadata for this page" and empty values are never persisted.
//
// # Metadata shapes
//
// The service may deliver the page list either as an array or as an object
// wrapping the array under "Page", with plain or "@"-prefixed attribute
// keys. PageList normalises all of them before the values reach the page
// settings code.
package comic
