package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/cbzmeta/internal/backend"
	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/config"
	"github.com/five82/cbzmeta/internal/natsevents"
	"github.com/five82/cbzmeta/internal/prefs"
	"github.com/five82/cbzmeta/internal/session"
	"github.com/five82/cbzmeta/internal/sqlite"
	"github.com/five82/cbzmeta/internal/ui"
)

// Options configure the cbzmeta application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/cbzmeta/prefs.toml
	// LogWriter receives the application log instead of the log file.
	LogWriter io.Writer
	// RetryEvery is the interval of reload attempts while the service is
	// unreachable. Zero uses the default; negative disables retries.
	RetryEvery time.Duration
}

// Env holds the wired components of a running application.
type Env struct {
	Config  config.Config
	Logger  *slog.Logger
	Client  *backend.Client
	Session *session.Session

	closers []func() error
}

// Open loads the configuration and wires the service client, the event
// source, the preference store and an idle session.
func Open(opts Options) (env *Env, err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	env = &Env{Config: cfg}
	defer func() {
		if err != nil {
			_ = env.Close()
		}
	}()

	if env.Logger, err = env.openLogger(opts.LogWriter); err != nil {
		return nil, err
	}

	env.Client, err = backend.NewClient(cfg.APIBind,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(env.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init service client: %w", err)
	}

	var events comic.EventSource = env.Client
	if cfg.Events == config.EventsNATS {
		nc, err := natsevents.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix, env.Logger)
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, func() error { nc.Close(); return nil })
		events = nc
	}

	kv, err := env.openPrefsDB()
	if err != nil {
		return nil, err
	}

	env.Session = session.New(session.Options{
		Service: env.Client,
		Events:  events,
		Prefs:   kv,
		Logger:  env.Logger,
	})
	env.Logger.Debug("session created",
		"session", env.Session.ID(),
		"api_bind", cfg.APIBind,
		"events", cfg.Events,
		"prefs_db", cfg.PrefsDB,
	)
	return env, nil
}

func (e *Env) openLogger(w io.Writer) (*slog.Logger, error) {
	level, err := e.Config.SlogLevel()
	if err != nil {
		return nil, err
	}
	if w == nil {
		path := e.Config.LogPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		e.closers = append(e.closers, f.Close)
		w = f
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func (e *Env) openPrefsDB() (comic.KeyValueStore, error) {
	path := e.Config.PrefsDB
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create prefs dir: %w", err)
		}
	}
	db := sqlite.NewDB(path)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	e.closers = append(e.closers, db.Close)
	return sqlite.NewKeyValueStore(db), nil
}

// OpenArchive switches the session to path. A service error is recorded in
// the session state and also returned.
func (e *Env) OpenArchive(ctx context.Context, path string) error {
	if err := e.Session.SetPath(ctx, path); err != nil {
		return err
	}
	if err := e.Session.Snapshot().LastError; err != nil {
		return err
	}
	return nil
}

// Close tears down the session and releases everything Open acquired, in
// reverse order.
func (e *Env) Close() error {
	var errs []error
	if e.Session != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, e.Session.Close(ctx))
		cancel()
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Run boots the page editor for archive until the user quits or the
// context is cancelled. An empty archive reopens the last one.
func Run(ctx context.Context, opts Options, archive string) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() { _ = env.Close() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}
	if archive == "" {
		archive = userPrefs.LastArchive
	}
	if archive != "" {
		if abs, err := filepath.Abs(archive); err == nil {
			archive = abs
		}
		userPrefs.AddRecent(archive)
		prefsPath := opts.PrefsPath
		if prefsPath == "" {
			prefsPath = prefs.DefaultPath()
		}
		if err := prefs.Save(prefsPath, userPrefs); err != nil {
			env.Logger.Warn("save prefs", "error", err)
		}

		// Load failures are shown by the UI.
		if err := env.Session.SetPath(ctx, archive); err != nil {
			env.Logger.Warn("open archive", "path", archive, "error", err)
		}
	}

	interval := defaultRetryInterval
	if opts.RetryEvery != 0 {
		interval = opts.RetryEvery
	}
	if interval > 0 {
		StartPoller(ctx, env.Session, interval, env.Logger)
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Session:   env.Session,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})
}
