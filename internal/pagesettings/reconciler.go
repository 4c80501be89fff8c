package pagesettings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/five82/cbzmeta/internal/comic"
)

// ErrSaveInProgress is returned by Save while another save is running.
var ErrSaveInProgress = errors.New("save already in progress")

// Reconciler keeps the user's in-progress page settings (current) next to
// the last values known to match the archive (authoritative) and computes
// what to send when saving.
//
// Page order is held explicitly; a page's save index is its position in the
// archive, not its position in any map.
type Reconciler struct {
	service comic.ArchiveService
	logger  *slog.Logger

	mu            sync.Mutex
	order         []string
	index         map[string]int
	current       map[string]comic.PageSettings
	authoritative map[string]comic.PageSettings
	saving        bool
}

// New returns an empty reconciler saving through service.
func New(service comic.ArchiveService, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		service:       service,
		logger:        logger,
		index:         make(map[string]int),
		current:       make(map[string]comic.PageSettings),
		authoritative: make(map[string]comic.PageSettings),
	}
}

// SetAuthoritative replaces the authoritative settings and the page order,
// typically after a load. When no current settings exist yet they are
// seeded from the authoritative ones; otherwise current is left alone so
// unsaved edits survive a reload.
func (r *Reconciler) SetAuthoritative(order []string, settings map[string]comic.PageSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = slices.Clone(order)
	r.index = make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := r.index[id]; !dup {
			r.index[id] = i
		}
	}
	r.authoritative = maps.Clone(settings)
	if r.authoritative == nil {
		r.authoritative = make(map[string]comic.PageSettings)
	}
	if len(r.current) == 0 {
		r.current = maps.Clone(r.authoritative)
	}
}

// Restore replaces the current settings with a previously saved snapshot.
func (r *Reconciler) Restore(snapshot map[string]comic.PageSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = maps.Clone(snapshot)
	if r.current == nil {
		r.current = make(map[string]comic.PageSettings)
	}
}

// Clear drops all state. Used when the archive changes.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.index = make(map[string]int)
	r.current = make(map[string]comic.PageSettings)
	r.authoritative = make(map[string]comic.PageSettings)
}

// Update merges u into the current settings of id, starting from blank
// settings when the page has none.
func (r *Reconciler) Update(id string, u comic.SettingsUpdate) comic.PageSettings {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.current[id]
	if !ok {
		s = comic.BlankSettings()
	}
	s = s.Apply(u)
	r.current[id] = s
	return s
}

// Reset returns id to its authoritative settings, or to blank settings
// when it has none.
func (r *Reconciler) Reset(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked(id)
}

func (r *Reconciler) resetLocked(id string) {
	if s, ok := r.authoritative[id]; ok {
		r.current[id] = s
		return
	}
	r.current[id] = comic.BlankSettings()
}

// ResetAll resets every page that has current settings.
func (r *Reconciler) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.current {
		r.resetLocked(id)
	}
}

// IsEdited reports whether the current settings of id differ from the
// authoritative ones. A page without authoritative settings counts as
// edited once its current settings are non-empty.
func (r *Reconciler) IsEdited(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isEditedLocked(id)
}

func (r *Reconciler) isEditedLocked(id string) bool {
	if id == "" {
		return false
	}
	cur, hasCur := r.current[id]
	if !hasCur {
		return false
	}
	orig, hasOrig := r.authoritative[id]
	if !hasOrig {
		return !cur.IsEmpty()
	}
	return !orig.Equal(cur)
}

// HasEdits reports whether any page is edited.
func (r *Reconciler) HasEdits() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasEditsLocked()
}

func (r *Reconciler) hasEditsLocked() bool {
	for id := range r.current {
		if r.isEditedLocked(id) {
			return true
		}
	}
	return false
}

// EditedPages lists the edited pages in page order. Edited pages that are
// not part of the archive come last, sorted by name.
func (r *Reconciler) EditedPages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var known, unknown []string
	for id := range r.current {
		if !r.isEditedLocked(id) {
			continue
		}
		if _, ok := r.index[id]; ok {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	slices.SortFunc(known, func(a, b string) int { return r.index[a] - r.index[b] })
	slices.Sort(unknown)
	return append(known, unknown...)
}

// Current returns the current settings of id.
func (r *Reconciler) Current(id string) (comic.PageSettings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.current[id]
	return s, ok
}

// Authoritative returns the authoritative settings of id.
func (r *Reconciler) Authoritative(id string) (comic.PageSettings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.authoritative[id]
	return s, ok
}

// CurrentSnapshot returns a copy of all current settings.
func (r *Reconciler) CurrentSnapshot() map[string]comic.PageSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.current)
}

// AuthoritativeSnapshot returns a copy of all authoritative settings.
func (r *Reconciler) AuthoritativeSnapshot() map[string]comic.PageSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.authoritative)
}

// BookmarkedFiles lists pages whose current bookmark is non-blank, in page
// order. Pages outside the archive come last, sorted by name.
func (r *Reconciler) BookmarkedFiles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookmarkedLocked()
}

func (r *Reconciler) bookmarkedLocked() []string {
	var out []string
	for _, id := range r.order {
		if s, ok := r.current[id]; ok && s.IsBookmarked() {
			out = append(out, id)
		}
	}
	var extra []string
	for id, s := range r.current {
		if _, ok := r.index[id]; !ok && s.IsBookmarked() {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Saving reports whether a save is running.
func (r *Reconciler) Saving() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saving
}

// Payload builds the save request: every non-empty current entry, keyed by
// page, carrying its position in the archive.
func (r *Reconciler) Payload() map[string]comic.PagePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payloadLocked()
}

func (r *Reconciler) payloadLocked() map[string]comic.PagePayload {
	out := make(map[string]comic.PagePayload, len(r.current))
	for id, s := range r.current {
		if s.IsEmpty() {
			continue
		}
		idx, ok := r.index[id]
		if !ok {
			r.logger.Warn("page not in archive, not saved", "page", id)
			continue
		}
		if s.Type == comic.PageUnknown {
			r.logger.Debug("saving page with unknown type", "page", id)
		}
		out[id] = s.Payload(idx)
	}
	return out
}

// SaveRequest is a save captured by BeginSave: the archive it targets and
// the settings it carries, taken in one step so a later archive switch
// cannot mix them.
type SaveRequest struct {
	Path string
	// Payload is nil when nothing is edited.
	Payload map[string]comic.PagePayload
	// Bookmarks lists the pages bookmarked in the captured settings.
	Bookmarks []string
}

// BeginSave captures the save of the archive at path and marks a save as
// running. Every successful BeginSave must be followed by Send.
func (r *Reconciler) BeginSave(path string) (*SaveRequest, error) {
	if path == "" {
		return nil, comic.ErrNoArchive
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saving {
		return nil, ErrSaveInProgress
	}
	r.saving = true

	req := &SaveRequest{Path: path, Bookmarks: r.bookmarkedLocked()}
	if r.hasEditsLocked() {
		req.Payload = r.payloadLocked()
	}
	return req, nil
}

// Send performs a save captured by BeginSave. When nothing was edited no
// request is made. After a successful request reload is called so the
// authoritative settings are refreshed from what the archive now holds;
// current settings are not promoted locally.
//
// Send returns the pages bookmarked in the saved settings.
func (r *Reconciler) Send(ctx context.Context, req *SaveRequest, reload func(context.Context) error) ([]string, error) {
	defer func() {
		r.mu.Lock()
		r.saving = false
		r.mu.Unlock()
	}()

	if req.Payload == nil {
		r.logger.Debug("no edited pages to save", "path", req.Path)
		return req.Bookmarks, nil
	}

	r.logger.Info("saving page settings", "path", req.Path, "pages", len(req.Payload))
	if _, err := r.service.SaveSettings(ctx, req.Path, req.Payload); err != nil {
		return nil, fmt.Errorf("save page settings: %w", err)
	}
	if reload != nil {
		if err := reload(ctx); err != nil {
			return nil, fmt.Errorf("reload after save: %w", err)
		}
	}
	return req.Bookmarks, nil
}

// Save sends the edited settings of the archive at path to the service.
// It is BeginSave followed by Send.
func (r *Reconciler) Save(ctx context.Context, path string, reload func(context.Context) error) ([]string, error) {
	req, err := r.BeginSave(path)
	if err != nil {
		return nil, err
	}
	return r.Send(ctx, req, reload)
}
