package session

import (
	"context"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/prefs"
	"github.com/five82/cbzmeta/internal/preview"
)

func (s *Session) archivePrefs() (*prefs.Archive, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archive, s.path
}

// persistCurrent stores the unsaved page settings so they survive a
// restart. Failures are logged only.
func (s *Session) persistCurrent(ctx context.Context) {
	archive, path := s.archivePrefs()
	if archive == nil {
		return
	}
	if err := archive.SetCurrentPageSettings(ctx, s.settings.CurrentSnapshot()); err != nil {
		s.logger.Warn("persist page settings", "path", path, "error", err)
	}
}

// UpdatePage applies u to the current settings of page id.
func (s *Session) UpdatePage(ctx context.Context, id string, u comic.SettingsUpdate) comic.PageSettings {
	updated := s.settings.Update(id, u)
	s.logger.Debug("page updated", "page", id, "settings", updated.String())
	s.persistCurrent(ctx)
	s.notify()
	return updated
}

// ResetPage discards the edits of page id.
func (s *Session) ResetPage(ctx context.Context, id string) {
	s.settings.Reset(id)
	s.persistCurrent(ctx)
	s.notify()
}

// ResetAll discards every edit.
func (s *Session) ResetAll(ctx context.Context) {
	s.settings.ResetAll()
	s.persistCurrent(ctx)
	s.notify()
}

// Save writes the edited page settings to the archive, reloads it and
// caches the resulting bookmark list. The target path and the settings sent
// are captured together; if the archive changes while the request is out,
// the result is recorded for the saved archive only and no reload runs.
func (s *Session) Save(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	path, gen, archive := s.path, s.gen, s.archive
	req, err := s.settings.BeginSave(path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	reload := func(ctx context.Context) error {
		if !s.current(gen) {
			s.logger.Debug("archive changed during save, skipping reload", "path", path)
			return nil
		}
		return s.Reload(ctx)
	}
	bookmarks, err := s.settings.Send(ctx, req, reload)
	if err != nil {
		return nil, err
	}

	if archive != nil {
		if err := archive.SetBookmarkedFiles(ctx, bookmarks); err != nil {
			s.logger.Warn("persist bookmarked files", "path", path, "error", err)
		}
	}
	if s.current(gen) {
		s.persistCurrent(ctx)
	}
	s.logger.Info("page settings saved", "path", path, "bookmarks", len(bookmarks))
	s.notify()
	return bookmarks, nil
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen && !s.closed
}

// Preview returns the preview of page id, fetching it if needed. A fetch
// that races a path switch returns preview.ErrStale.
func (s *Session) Preview(ctx context.Context, id string) (string, error) {
	return s.loader.Get(ctx, s.Path(), id)
}

// StreamPreviews fetches the previews of every page of the archive that is
// not cached yet.
func (s *Session) StreamPreviews(ctx context.Context, cb preview.Callbacks) error {
	s.mu.Lock()
	path, ids := s.path, s.store.Snapshot().PageIDs
	s.mu.Unlock()
	return s.loader.Stream(ctx, path, ids, cb)
}

// SelectPage shows page id in the viewer and remembers the selection.
func (s *Session) SelectPage(ctx context.Context, id string) error {
	archive, path := s.archivePrefs()
	if archive != nil {
		if err := archive.SetSelectedFile(ctx, id); err != nil {
			s.logger.Warn("persist selected file", "path", path, "error", err)
		}
	}
	err := s.viewer.Show(ctx, path, id)
	s.notify()
	return err
}

// SelectedPage returns the remembered selection of the archive.
func (s *Session) SelectedPage(ctx context.Context) string {
	archive, _ := s.archivePrefs()
	if archive == nil {
		return ""
	}
	id, err := archive.SelectedFile(ctx)
	if err != nil {
		s.logger.Warn("read selected file", "error", err)
	}
	return id
}

// FindPage resolves a 1-based page number in the current archive.
func (s *Session) FindPage(pageNum string, byFileName bool) (string, bool) {
	return comic.FindPage(pageNum, byFileName, s.store.Snapshot().PageIDs)
}

// TOC lists the bookmarked pages of the current settings.
func (s *Session) TOC() []comic.TOCEntry {
	return comic.TOC(s.store.Snapshot().PageIDs, s.settings.CurrentSnapshot())
}

// Filter returns the page list filter stored for the archive.
func (s *Session) Filter(ctx context.Context) comic.Filter {
	f := comic.Filter{Bookmarks: s.store.Snapshot().Bookmarks}
	archive, path := s.archivePrefs()
	if archive == nil {
		return f
	}

	var err error
	if f.EditedOnly, err = archive.ShowFiltered(ctx); err != nil {
		s.logger.Warn("read filter", "path", path, "error", err)
	}
	if f.BookmarkedOnly, err = archive.ShowBookmarkFiltered(ctx); err != nil {
		s.logger.Warn("read bookmark filter", "path", path, "error", err)
	}
	if f.TOCFile, err = archive.TOCFile(ctx); err != nil {
		s.logger.Warn("read toc file", "path", path, "error", err)
	}
	return f
}

// SetFilter stores the page list filter of the archive. The two toggles
// are exclusive; EditedOnly wins.
func (s *Session) SetFilter(ctx context.Context, editedOnly, bookmarkedOnly bool) error {
	archive, _ := s.archivePrefs()
	if archive == nil {
		return comic.ErrNoArchive
	}
	if editedOnly {
		bookmarkedOnly = false
	}
	if err := archive.SetShowFiltered(ctx, editedOnly); err != nil {
		return err
	}
	if err := archive.SetShowBookmarkFiltered(ctx, bookmarkedOnly); err != nil {
		return err
	}
	s.notify()
	return nil
}

// SetTOCFile marks page id as the table of contents page.
func (s *Session) SetTOCFile(ctx context.Context, id string) error {
	archive, _ := s.archivePrefs()
	if archive == nil {
		return comic.ErrNoArchive
	}
	if err := archive.SetTOCFile(ctx, id); err != nil {
		return err
	}
	s.notify()
	return nil
}

// Pages returns the page list with the stored filter applied.
func (s *Session) Pages(ctx context.Context) []string {
	return comic.FilterPages(s.store.Snapshot().PageIDs, s.Filter(ctx), s.settings)
}
