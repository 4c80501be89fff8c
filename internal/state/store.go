package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/cbzmeta/internal/comic"
)

// Status is the load state of the open archive.
type Status int

const (
	Idle Status = iota
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Snapshot represents the latest session data available to the UI.
type Snapshot struct {
	Path      string
	Status    Status
	PageIDs   []string
	ComicInfo *comic.ComicInfo
	// Bookmarks are the pages bookmarked in the archive's metadata.
	Bookmarks []string
	LastError error
	// Generation increases with every path change.
	Generation          uint64
	LastUpdated         time.Time
	ConsecutiveFailures int // Number of consecutive failed loads
}

// HasArchive reports whether a path is selected.
func (s Snapshot) HasArchive() bool {
	return s.Path != ""
}

// ErrorKind returns the service error kind of LastError, if any.
func (s Snapshot) ErrorKind() comic.ErrorKind {
	return comic.ErrorKindOf(s.LastError)
}

// IsOffline returns true when the service has been unreachable for multiple loads.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetPath switches to a new archive and clears everything derived from the
// previous one. An empty path leaves the store Idle.
func (s *Store) SetPath(path string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot{
		Path:                path,
		Status:              Idle,
		Generation:          s.snapshot.Generation + 1,
		LastUpdated:         time.Now(),
		ConsecutiveFailures: s.snapshot.ConsecutiveFailures,
	}
	return s.snapshot.Generation
}

// Begin marks a load as started. Page data from an earlier load stays
// visible until the new one settles.
func (s *Store) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Status = Loading
	s.snapshot.LastUpdated = time.Now()
}

// Update records the result of a load. When err is non-nil the load failed
// and the page list is emptied. Otherwise the store is Loaded and soft
// carries any recoverable problem reported alongside the data.
func (s *Store) Update(pageIDs []string, info *comic.ComicInfo, bookmarks []string, soft, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.Status = Failed
		s.snapshot.PageIDs = nil
		s.snapshot.ComicInfo = nil
		s.snapshot.Bookmarks = nil
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Status = Loaded
	s.snapshot.PageIDs = slices.Clone(pageIDs)
	s.snapshot.ComicInfo = info
	s.snapshot.Bookmarks = slices.Clone(bookmarks)
	s.snapshot.LastError = soft
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// UpdateMetadata replaces only the metadata document and bookmarks.
func (s *Store) UpdateMetadata(info *comic.ComicInfo, bookmarks []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.ComicInfo = info
	s.snapshot.Bookmarks = slices.Clone(bookmarks)
	s.snapshot.LastUpdated = time.Now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.PageIDs = slices.Clone(s.snapshot.PageIDs)
	snap.Bookmarks = slices.Clone(s.snapshot.Bookmarks)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
