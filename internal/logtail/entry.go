package logtail

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Entry is one line of the application log. Lines written by
// slog.TextHandler are split into their fields; anything else keeps only
// Raw and Message.
type Entry struct {
	Raw     string
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   []Attr
	// Parsed is false for lines that are not key=value records.
	Parsed bool
	// Continuation holds the non-record lines that followed the record.
	// They are also part of Raw.
	Continuation []string
}

func (e *Entry) continueWith(line string) {
	e.Continuation = append(e.Continuation, line)
	e.Raw += "\n" + line
}

// Attr is a key=value pair of an entry, in line order.
type Attr struct {
	Key   string
	Value string
}

// Get returns the value of the first attribute named key.
func (e Entry) Get(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Parse splits a slog text line such as
//
//	time=2025-01-02T03:04:05.000Z level=INFO msg="archive loaded" path=/c/a.cbz pages=24
func Parse(line string) Entry {
	e := Entry{Raw: line, Message: line, Level: slog.LevelInfo}
	pairs, ok := splitPairs(line)
	if !ok || len(pairs) == 0 {
		return e
	}

	e.Message = ""
	for _, p := range pairs {
		switch p.Key {
		case slog.TimeKey:
			if t, err := time.Parse(time.RFC3339Nano, p.Value); err == nil {
				e.Time = t
			}
		case slog.LevelKey:
			_ = e.Level.UnmarshalText([]byte(p.Value))
		case slog.MessageKey:
			e.Message = p.Value
		default:
			e.Attrs = append(e.Attrs, p)
		}
	}
	e.Parsed = true
	return e
}

func splitPairs(line string) ([]Attr, bool) {
	var out []Attr
	rest := strings.TrimSpace(line)
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \"") {
			return nil, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := closingQuote(rest)
			if end < 0 {
				return nil, false
			}
			unquoted, err := strconv.Unquote(rest[:end+1])
			if err != nil {
				return nil, false
			}
			value = unquoted
			rest = rest[end+1:]
		} else {
			sp := strings.IndexByte(rest, ' ')
			if sp < 0 {
				sp = len(rest)
			}
			value = rest[:sp]
			rest = rest[sp:]
		}
		out = append(out, Attr{Key: key, Value: value})
		rest = strings.TrimLeft(rest, " ")
	}
	return out, true
}

// closingQuote returns the index of the quote ending the string literal
// that starts s.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// Filter selects entries for `cbzmeta logs`.
type Filter struct {
	MinLevel slog.Level
	Session  string
	Path     string
}

// Match reports whether e passes f. A standalone unparsed line counts as
// INFO and never matches a session or path.
func (f Filter) Match(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if !e.Parsed {
		return f.Session == "" && f.Path == ""
	}
	if f.Session != "" && !strings.HasPrefix(e.Get("session"), f.Session) {
		return false
	}
	if f.Path != "" && e.Get("path") != f.Path {
		return false
	}
	return true
}
