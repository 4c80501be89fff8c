package preview

import (
	"sync"
)

// Store caches display-ready previews (data URLs) keyed by page identifier.
// It is shared by the single-page and streaming loaders of one session.
//
// A store belongs to one archive path at a time. Every Reset rebinds it and
// bumps a generation counter. Fetches read the path and generation together
// with Binding, refuse to start for any other path, and write with SetIf, so
// a result that arrives after the archive changed is dropped instead of
// polluting the new cache.
//
// Get, Has and Missing do not check the binding; the loaders do.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
	path    string
	gen     uint64
}

// NewStore returns an empty store bound to path.
func NewStore(path string) *Store {
	return &Store{entries: make(map[string]string), path: path}
}

// Get returns the cached preview for id.
func (s *Store) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	url, ok := s.entries[id]
	return url, ok
}

// Has reports whether id is cached.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Set caches url for id unconditionally.
func (s *Store) Set(id, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = url
}

// SetIf caches url for id only while the store is still at generation gen.
// It reports whether the write happened.
func (s *Store) SetIf(gen uint64, id, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.entries[id] = url
	return true
}

// Generation returns the current generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Binding returns the archive path the store belongs to and its generation,
// read atomically.
func (s *Store) Binding() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path, s.gen
}

// Missing returns the identifiers of ids that are not cached, in order.
func (s *Store) Missing(ids []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, id := range ids {
		if _, ok := s.entries[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of cached previews.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// lookup reads id and the generation in one step. bound is false when the
// store belongs to another archive; nothing else is reported then.
func (s *Store) lookup(path, id string) (url string, gen uint64, cached, bound bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.path != path {
		return "", 0, false, false
	}
	url, cached = s.entries[id]
	return url, s.gen, cached, true
}

// missingAt is Missing for the archive at path, together with the
// generation it saw.
func (s *Store) missingAt(path string, ids []string) (missing []string, gen uint64, bound bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.path != path {
		return nil, 0, false
	}
	for _, id := range ids {
		if _, ok := s.entries[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, s.gen, true
}

// Reset drops every entry, binds the store to path and starts a new
// generation.
func (s *Store) Reset(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]string)
	s.path = path
	s.gen++
}
