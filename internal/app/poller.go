package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/session"
	"github.com/five82/cbzmeta/internal/state"
)

const defaultRetryInterval = 5 * time.Second

// StartPoller launches a background goroutine that reloads the session at
// a fixed cadence while the archive service is unreachable. It returns
// immediately.
func StartPoller(ctx context.Context, s *session.Session, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			retry(ctx, s, logger)
		}
	}()
}

// needsRetry reports whether the last load failed in transport rather than
// being rejected by the service.
func needsRetry(snap state.Snapshot) bool {
	return snap.HasArchive() &&
		snap.Status == state.Failed &&
		snap.ErrorKind() == comic.ErrOther
}

func retry(ctx context.Context, s *session.Session, logger *slog.Logger) {
	snap := s.Snapshot()
	if !needsRetry(snap) {
		return
	}
	logger.Debug("retrying archive load", "path", snap.Path, "failures", snap.ConsecutiveFailures)
	if err := s.Reload(ctx); err != nil {
		logger.Debug("retry failed", "path", snap.Path, "error", err)
	}
}
