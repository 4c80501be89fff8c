// Package backend provides a client for the archive service API.
//
// # Overview
//
// Client implements comic.ArchiveService over HTTP JSON and comic.EventSource
// over websockets. Plain requests share one http.Client with a timeout; the
// preview stream and event subscriptions run on their own websocket
// connections and live as long as their context or subscription.
//
// # Endpoints
//
//   - POST /api/archive/open, /api/archive/unload, /api/archive/watch
//   - GET /api/archive/file?path=&file=
//   - POST /api/archive/pages
//   - GET /api/archive/comicinfo?path=
//   - GET, PUT, DELETE /api/archive/comicinfo/raw
//   - POST /api/comicinfo/validate, /api/comicinfo/format
//   - websocket /api/archive/stream and /api/events?event=
//
// Query strings are built with gorilla/schema from small tagged structs.
//
// # Errors
//
// A response with status >= 400 whose body is an {"error_type","message"}
// record is returned as a wrapped *comic.ServiceError, so callers can use
// comic.ErrorKindOf. Other failures are plain wrapped errors.
//
// # Subscriptions
//
// A subscription reconnects after a dropped connection, doubling the delay
// per failed attempt up to 30s. Unsubscribing closes the connection and
// waits for the reader goroutine, so no handler call happens afterwards.
package backend
