package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Read returns the last maxLines entries of the log file at path that
// satisfy keep, oldest first. maxLines <= 0 returns every matching entry.
// A nil keep accepts everything. A missing file yields no entries.
//
// Lines that are not records (a panic trace, say) belong to the record
// before them and are filtered with it. Only such lines at the head of the
// file stand alone.
func Read(path string, maxLines int, keep func(Entry) bool) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	tail := newRing(maxLines)
	var pending *Entry
	flush := func() {
		if pending != nil && (keep == nil || keep(*pending)) {
			tail.push(*pending)
		}
		pending = nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry := Parse(scanner.Text())
		if !entry.Parsed && pending != nil && pending.Parsed {
			pending.continueWith(entry.Raw)
			continue
		}
		flush()
		pending = &entry
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	flush()
	return tail.entries(), nil
}

// ring keeps the newest entries pushed into it, or all of them when
// unbounded.
type ring struct {
	buf  []Entry
	next int
	full bool
	max  int
}

func newRing(max int) *ring {
	if max <= 0 {
		return &ring{}
	}
	return &ring{buf: make([]Entry, 0, max), max: max}
}

func (r *ring) push(e Entry) {
	if r.max == 0 || len(r.buf) < r.max {
		r.buf = append(r.buf, e)
		return
	}
	r.buf[r.next] = e
	r.next = (r.next + 1) % r.max
	r.full = true
}

func (r *ring) entries() []Entry {
	if !r.full {
		return r.buf
	}
	out := make([]Entry, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
