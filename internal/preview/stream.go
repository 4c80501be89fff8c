package preview

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/cbzmeta/internal/comic"
)

// Callbacks receive the progress of a streaming batch. All fields are
// optional.
type Callbacks struct {
	// OnStart is called when the service accepts the batch, with the number
	// of files it is going to send.
	OnStart func(totalFiles int)
	// OnProgress is called after every resolved file, successful or not.
	// loaded counts already cached pages too; total is len(ids).
	OnProgress func(loaded, total int)
	// OnFinish is called exactly once per Stream call.
	OnFinish func()
}

// Stream fetches every page of ids that is not cached yet with one
// streaming request. When nothing is missing OnFinish fires immediately and
// no request is made.
//
// The store must be bound to path; otherwise ErrStale is returned without
// a request. Per-file errors are logged and counted as resolved. OnFinish
// fires on the terminal event, or when the stream ends without one; the
// transport error of such a stream is returned.
func (l *Loader) Stream(ctx context.Context, path string, ids []string, cb Callbacks) error {
	var once sync.Once
	finish := func() {
		once.Do(func() {
			if cb.OnFinish != nil {
				cb.OnFinish()
			}
		})
	}
	defer finish()

	if len(ids) == 0 {
		return nil
	}
	if path == "" {
		return comic.ErrNoArchive
	}
	missing, gen, bound := l.store.missingAt(path, ids)
	if !bound {
		l.logger.Debug("previews requested for another archive", "path", path)
		return ErrStale
	}
	if len(missing) == 0 {
		l.logger.Debug("all previews cached", "path", path, "total", len(ids))
		return nil
	}

	total := len(ids)
	loaded := total - len(missing)

	l.logger.Debug("streaming previews", "path", path, "missing", len(missing), "total", total)

	progress := func() {
		loaded++
		if cb.OnProgress != nil {
			cb.OnProgress(loaded, total)
		}
	}

	err := l.service.StreamPreviews(ctx, path, missing, func(ev comic.StreamEvent) {
		if l.store.Generation() != gen {
			return
		}
		switch ev.Kind {
		case comic.StreamStarted:
			if cb.OnStart != nil {
				cb.OnStart(ev.TotalFiles)
			}
		case comic.StreamPreview:
			if ev.FileName == "" {
				l.logger.Warn("preview event without file name", "path", path)
				return
			}
			l.store.SetIf(gen, ev.FileName, comic.DataURLBase64(ev.FileName, ev.DataBase64))
			progress()
		case comic.StreamError:
			l.logger.Warn("preview failed", "path", path, "page", ev.FileName, "error", ev.Message)
			progress()
		case comic.StreamFinished:
			l.logger.Debug("streaming finished", "path", path, "loaded", loaded, "total", total)
			finish()
		}
	})
	if err != nil {
		l.logger.Warn("preview stream failed", "path", path, "error", err)
		return fmt.Errorf("stream previews: %w", err)
	}
	return nil
}
