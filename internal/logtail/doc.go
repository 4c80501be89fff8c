// Package logtail reads the tail of cbzmeta's log file for `cbzmeta logs`.
//
// The log is written by slog.TextHandler, so each line is a sequence of
// key=value pairs with time, level and msg first. Read scans the file once,
// keeping the newest matching entries in a ring of maxLines, so memory
// stays O(maxLines) regardless of file size. A missing file is not an
// error.
//
// Filter narrows entries by minimum level, session id prefix and archive
// path. Render colours an entry with lipgloss; lines that are not
// key=value records pass through untouched.
package logtail
