package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/five82/cbzmeta/internal/comic"
)

// ErrStale reports a fetch for an archive the store no longer belongs to.
var ErrStale = errors.New("preview result is stale")

// Loader fetches previews through a shared Store. Single pages go through
// Get, batches through Stream.
type Loader struct {
	service comic.ArchiveService
	store   *Store
	logger  *slog.Logger
	group   singleflight.Group

	mu      sync.Mutex
	loading map[string]int
}

// NewLoader wires a loader to the archive service and store.
func NewLoader(service comic.ArchiveService, store *Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		service: service,
		store:   store,
		logger:  logger,
		loading: make(map[string]int),
	}
}

// Store returns the cache backing the loader.
func (l *Loader) Store() *Store {
	return l.store
}

// Loading reports whether a single-page fetch for id is outstanding.
func (l *Loader) Loading(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading[id] > 0
}

// Get returns the preview for id, fetching it when it is not cached.
// Concurrent calls for the same page share one request, which is not tied
// to any single caller's context: a caller that gives up returns ctx.Err()
// while the others keep waiting. Service errors are returned and never
// cached. A path the store is not bound to, or a result that lands after a
// store reset, yields ErrStale.
func (l *Loader) Get(ctx context.Context, path, id string) (string, error) {
	if path == "" {
		return "", comic.ErrNoArchive
	}
	url, gen, cached, bound := l.store.lookup(path, id)
	if !bound {
		l.logger.Debug("preview requested for another archive", "path", path, "page", id)
		return "", ErrStale
	}
	if cached {
		return url, nil
	}
	key := strconv.FormatUint(gen, 10) + "\x00" + path + "\x00" + id

	ch := l.group.DoChan(key, func() (any, error) {
		// A fetch that finished between the cache check and here.
		if url, _, cached, _ := l.store.lookup(path, id); cached {
			return url, nil
		}

		l.markLoading(id, 1)
		defer l.markLoading(id, -1)

		data, err := l.service.GetPreview(context.WithoutCancel(ctx), path, id)
		if err != nil {
			return "", fmt.Errorf("get preview %s: %w", id, err)
		}
		if data == nil {
			return "", fmt.Errorf("get preview %s: empty response", id)
		}
		if data.Error != nil {
			return "", data.Error
		}

		url := comic.DataURL(id, data.Data)
		if !l.store.SetIf(gen, id, url) {
			l.logger.Debug("discarding stale preview", "path", path, "page", id)
			return "", ErrStale
		}
		return url, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (l *Loader) markLoading(id string, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading[id] += delta
	if l.loading[id] <= 0 {
		delete(l.loading, id)
	}
}
