// Package app is the composition root of cbzmeta.
//
// Open loads the configuration and wires the pieces every command needs:
//
//   - the slog logger writing to <log_dir>/cbzmeta.log
//   - backend.Client for the archive service
//   - the event source (the service websocket, or NATS when events = "nats")
//   - the SQLite preference store behind per-archive state
//   - an idle session.Session on top of all of them
//
// Run opens an archive in that session and hands it to the terminal
// editor. While the service is unreachable a background poller keeps
// reloading the archive so the editor recovers without user action.
// Service-side rejections (a missing or corrupt archive) are not retried;
// those are reported through archive events instead.
package app
