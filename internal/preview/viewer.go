package preview

import (
	"context"
	"errors"
	"sync"
)

// ViewState is what the page view displays.
type ViewState struct {
	ID      string
	URL     string
	Loading bool
	Err     error
}

// Viewer tracks the currently displayed page. A fetch that completes after
// the selection moved on, or after the store was reset, does not touch the
// state.
type Viewer struct {
	loader *Loader

	mu    sync.Mutex
	seq   uint64
	state ViewState
}

// NewViewer returns a viewer fetching through loader.
func NewViewer(loader *Loader) *Viewer {
	return &Viewer{loader: loader}
}

// Show selects id and loads its preview. It returns ErrStale when the
// selection changed while the fetch was outstanding.
func (v *Viewer) Show(ctx context.Context, path, id string) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.state = ViewState{ID: id, Loading: true}
	v.mu.Unlock()

	url, err := v.loader.Get(ctx, path, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seq != seq || errors.Is(err, ErrStale) {
		return ErrStale
	}
	v.state = ViewState{ID: id, URL: url, Err: err}
	return err
}

// Clear drops the selection; outstanding fetches become stale.
func (v *Viewer) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	v.state = ViewState{}
}

// State returns the current view state.
func (v *Viewer) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
