// Package ui provides the terminal page editor for cbzmeta.
//
// The editor is a Bubble Tea program driven by a session.Session. The left
// pane lists the pages of the open archive with their current settings,
// the right pane shows the selected page next to its saved values and the
// table of contents. Edits go straight to the session, which keeps them
// persisted across restarts until they are saved to the archive.
//
// Session state changes are forwarded to the program as snapshot messages;
// long running work (saving, preview streaming, validation) runs in
// commands and reports back with its own message type.
//
// Press ? inside the editor for the key bindings.
package ui
