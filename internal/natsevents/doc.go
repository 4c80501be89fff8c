// Package natsevents delivers archive change notifications from NATS.
//
// Each event maps to the subject "<prefix>.<event>", for example
// "cbz.reload-archive", and the message data is the archive path. It is an
// alternative to the backend websocket event stream for deployments where
// the archive service publishes to a NATS server.
package natsevents
