package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/pagesettings"
	"github.com/five82/cbzmeta/internal/prefs"
	"github.com/five82/cbzmeta/internal/preview"
	"github.com/five82/cbzmeta/internal/state"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Options configures a Session. Service is required.
type Options struct {
	Service comic.ArchiveService
	// Events delivers reload/creation notifications. Optional.
	Events comic.EventSource
	// Prefs persists per-archive preferences. Optional.
	Prefs  comic.KeyValueStore
	Logger *slog.Logger
}

// Session is the open archive: its page list and metadata, the preview
// cache, the page settings being edited and the change subscriptions.
// All methods are safe for concurrent use.
type Session struct {
	id      string
	service comic.ArchiveService
	events  comic.EventSource
	kv      comic.KeyValueStore
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	store    state.Store
	previews *preview.Store
	loader   *preview.Loader
	viewer   *preview.Viewer
	settings *pagesettings.Reconciler

	// switchMu serialises path switches so teardown of the old
	// subscriptions completes before new ones are installed.
	switchMu sync.Mutex

	mu        sync.Mutex
	path      string
	gen       uint64
	loadSeq   uint64
	archive   *prefs.Archive
	subs      []func()
	closed    bool
	listeners map[int]func(state.Snapshot)
	nextL     int
}

// New creates an idle session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session", id)

	ctx, cancel := context.WithCancel(context.Background())
	previews := preview.NewStore("")
	loader := preview.NewLoader(opts.Service, previews, logger)

	return &Session{
		id:        id,
		service:   opts.Service,
		events:    opts.Events,
		kv:        opts.Prefs,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		previews:  previews,
		loader:    loader,
		viewer:    preview.NewViewer(loader),
		settings:  pagesettings.New(opts.Service, logger),
		listeners: make(map[int]func(state.Snapshot)),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Path returns the current archive path.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() state.Snapshot {
	return s.store.Snapshot()
}

// Previews returns the preview loader of the session.
func (s *Session) Previews() *preview.Loader {
	return s.loader
}

// Viewer returns the helper tracking the displayed page.
func (s *Session) Viewer() *preview.Viewer {
	return s.viewer
}

// Settings returns the page settings reconciler of the session.
func (s *Session) Settings() *pagesettings.Reconciler {
	return s.settings
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. The returned function removes the listener.
func (s *Session) Subscribe(fn func(state.Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextL++
	id := s.nextL
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	fns := make([]func(state.Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	snap := s.store.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// SetPath switches the session to the archive at path. Everything derived
// from the previous archive is dropped and its subscriptions are removed
// before the new ones are installed; then the archive is loaded. An empty
// path leaves the session idle.
func (s *Session) SetPath(ctx context.Context, path string) error {
	gen, err := s.switchTo(ctx, path)
	if err != nil || path == "" {
		return err
	}
	s.mu.Lock()
	current := s.gen == gen
	s.mu.Unlock()
	if !current {
		return nil
	}
	return s.Load(ctx)
}

func (s *Session) switchTo(ctx context.Context, path string) (uint64, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	old := s.path
	oldSubs := s.subs
	s.subs = nil
	s.path = path
	s.gen++
	gen := s.gen
	s.archive = nil
	if path != "" && s.kv != nil {
		s.archive = prefs.ForArchive(s.kv, path)
	}
	archive := s.archive
	s.previews.Reset(path)
	s.viewer.Clear()
	s.settings.Clear()
	s.store.SetPath(path)
	s.mu.Unlock()

	for _, unsubscribe := range oldSubs {
		unsubscribe()
	}
	if old != "" {
		s.closeWatch(ctx, old)
	}

	if path == "" {
		s.notify()
		return gen, nil
	}

	s.logger.Info("archive selected", "path", path)

	if archive != nil {
		current, err := archive.CurrentPageSettings(ctx)
		if err != nil {
			s.logger.Warn("read saved page settings", "path", path, "error", err)
		} else if len(current) > 0 {
			s.settings.Restore(current)
		}
	}

	s.subscribe(ctx, gen, path)
	return gen, nil
}

func (s *Session) subscribe(ctx context.Context, gen uint64, path string) {
	if s.events == nil {
		return
	}
	var subs []func()
	for _, event := range []comic.ArchiveEvent{comic.EventReloadArchive, comic.EventArchiveCreated} {
		unsubscribe, err := s.events.Subscribe(ctx, event, s.handler(gen, event))
		if err != nil {
			s.logger.Warn("subscribe to archive events", "path", path, "event", string(event), "error", err)
			continue
		}
		subs = append(subs, unsubscribe)
	}

	s.mu.Lock()
	stale := s.gen != gen || s.closed
	if !stale {
		s.subs = append(s.subs, subs...)
	}
	s.mu.Unlock()

	if stale {
		for _, unsubscribe := range subs {
			unsubscribe()
		}
	}
}

func (s *Session) handler(gen uint64, event comic.ArchiveEvent) func(string) {
	return func(payload string) {
		s.mu.Lock()
		match := !s.closed && s.gen == gen && payload == s.path
		s.mu.Unlock()
		if !match {
			s.logger.Debug("ignoring archive event", "event", string(event), "payload", payload)
			return
		}

		s.logger.Info("archive changed, reloading", "event", string(event), "path", payload)
		if err := s.Reload(s.ctx); err != nil {
			s.logger.Warn("reload after archive event", "path", payload, "error", err)
		}
	}
}

func (s *Session) closeWatch(ctx context.Context, path string) {
	if err := s.service.CloseArchiveWatch(ctx, path); err != nil {
		s.logger.Warn("close archive watch", "path", path, "error", err)
	}
}

// Load opens the current archive. A load that is superseded by a newer
// load or a path switch before it completes is discarded.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	path, gen := s.path, s.gen
	if path == "" {
		s.mu.Unlock()
		return nil
	}
	s.loadSeq++
	seq := s.loadSeq
	archive := s.archive
	s.store.Begin()
	s.mu.Unlock()
	s.notify()

	resp, err := s.service.OpenArchive(ctx, path)

	s.mu.Lock()
	if s.gen != gen || s.loadSeq != seq || s.closed {
		s.mu.Unlock()
		s.logger.Debug("discarding stale load", "path", path)
		return nil
	}

	if err != nil {
		s.store.Update(nil, nil, nil, nil, comic.Errorf(comic.ErrOther, "%s", err.Error()))
		s.mu.Unlock()
		s.logger.Error("open archive", "path", path, "error", err)
		s.notify()
		return fmt.Errorf("open archive: %w", err)
	}
	if resp == nil {
		resp = &comic.LoadResponse{}
	}

	authoritative := comic.SettingsFromComicInfo(resp.ImageFiles, resp.ComicInfo)
	bookmarks := comic.BookmarkedPages(authoritative, resp.ImageFiles)
	var soft error
	if resp.Error != nil {
		soft = resp.Error
	}
	s.settings.SetAuthoritative(resp.ImageFiles, authoritative)
	s.store.Update(resp.ImageFiles, resp.ComicInfo, bookmarks, soft, nil)
	s.mu.Unlock()

	s.logger.Info("archive loaded", "path", path, "pages", len(resp.ImageFiles), "bookmarks", len(bookmarks))

	if resp.Error != nil {
		s.logger.Warn("archive loaded with error", "path", path, "error", resp.Error)
		if resp.Error.Kind == comic.FailedToLoadArchive {
			if err := s.service.WatchForCreation(ctx, path); err != nil {
				s.logger.Warn("watch for archive creation", "path", path, "error", err)
			}
		}
	}

	if archive != nil {
		if err := archive.SetOriginalPageSettings(ctx, authoritative); err != nil {
			s.logger.Warn("persist original page settings", "path", path, "error", err)
		}
	}

	s.notify()
	return nil
}

// Reload loads the current archive again.
func (s *Session) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// ReloadMetadata refreshes only the metadata document of the current
// archive and re-derives the authoritative page settings from it.
func (s *Session) ReloadMetadata(ctx context.Context) error {
	s.mu.Lock()
	path, gen := s.path, s.gen
	s.mu.Unlock()
	if path == "" {
		return comic.ErrNoArchive
	}

	info, err := s.service.ComicInfo(ctx, path)
	if err != nil {
		return fmt.Errorf("reload metadata: %w", err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil
	}
	pageIDs := s.store.Snapshot().PageIDs
	authoritative := comic.SettingsFromComicInfo(pageIDs, info)
	s.settings.SetAuthoritative(pageIDs, authoritative)
	s.store.UpdateMetadata(info, comic.BookmarkedPages(authoritative, pageIDs))
	s.mu.Unlock()

	s.notify()
	return nil
}

// Close removes the subscriptions and the service-side watch of the
// current archive. The session cannot be used afterwards.
func (s *Session) Close(ctx context.Context) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	path := s.path
	subs := s.subs
	s.subs = nil
	s.gen++
	s.mu.Unlock()

	for _, unsubscribe := range subs {
		unsubscribe()
	}
	if path != "" {
		s.closeWatch(ctx, path)
	}
	s.cancel()
	s.logger.Debug("session closed", "path", path)
	return nil
}
