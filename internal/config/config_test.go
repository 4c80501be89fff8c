package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvAPIBind, EnvNATSURL, EnvLogLevel} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, defaultAPIBind)
	}

	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if cfg.PrefsDB != filepath.Join(wantLogDir, "prefs.db") {
		t.Fatalf("PrefsDB = %q, want %q", cfg.PrefsDB, filepath.Join(wantLogDir, "prefs.db"))
	}
	if cfg.Events != EventsWebsocket {
		t.Fatalf("Events = %q, want %q", cfg.Events, EventsWebsocket)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want %v", cfg.RequestTimeout, defaultRequestTimeout)
	}
	if level, err := cfg.SlogLevel(); err != nil || level != slog.LevelInfo {
		t.Fatalf("SlogLevel = %v, %v; want info", level, err)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeConfig(t, `
api_bind = "  10.0.0.5:9999  "
log_dir = "  ~/.cbz/logs  "
log_level = " DEBUG "
prefs_db = ":memory:"
events = "NATS"
nats_url = "nats://bus:4222"
nats_subject_prefix = "library"
request_timeout_seconds = 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "10.0.0.5:9999" {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, "10.0.0.5:9999")
	}
	if !strings.HasPrefix(cfg.LogDir, home) {
		t.Fatalf("LogDir = %q, want it under HOME %q", cfg.LogDir, home)
	}
	if cfg.PrefsDB != ":memory:" {
		t.Fatalf("PrefsDB = %q, want :memory:", cfg.PrefsDB)
	}
	if cfg.Events != EventsNATS || cfg.NATSURL != "nats://bus:4222" || cfg.NATSSubjectPrefix != "library" {
		t.Fatalf("events config = %q %q %q", cfg.Events, cfg.NATSURL, cfg.NATSSubjectPrefix)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if level, err := cfg.SlogLevel(); err != nil || level != slog.LevelDebug {
		t.Fatalf("SlogLevel = %v, %v; want debug", level, err)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv(EnvAPIBind, "192.168.1.2:7000")
	t.Setenv(EnvLogLevel, "warn")

	path := writeConfig(t, `
api_bind = "10.0.0.5:9999"
log_level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "192.168.1.2:7000" {
		t.Fatalf("APIBind = %q, want env override", cfg.APIBind)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	path := writeConfig(t, `
api_bind = "   "
log_dir = ""
request_timeout_seconds = -1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, defaultAPIBind)
	}
	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
	if cfg.RequestTimeout != defaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want default", cfg.RequestTimeout)
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"toml", `api_bind = [`, "parse config"},
		{"events", `events = "carrier-pigeon"`, "events must be"},
		{"log level", `log_level = "chatty"`, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenLogDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/cbzmeta.log")) {
		t.Fatalf("LogPath = %q, want it to end with /cbzmeta.log", got)
	}
}
