package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Event source kinds.
const (
	EventsWebsocket = "websocket"
	EventsNATS      = "nats"
)

// Config holds the settings cbzmeta reads from config.toml and the
// environment.
type Config struct {
	APIBind           string
	LogDir            string
	LogLevel          string
	PrefsDB           string
	Events            string
	NATSURL           string
	NATSSubjectPrefix string
	RequestTimeout    time.Duration
}

const (
	defaultConfigPath     = "~/.config/cbzmeta/config.toml"
	defaultLogDir         = "~/.local/share/cbzmeta"
	defaultAPIBind        = "127.0.0.1:7488"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
)

// Environment variables overriding file values.
const (
	EnvAPIBind  = "CBZMETA_API_BIND"
	EnvNATSURL  = "CBZMETA_NATS_URL"
	EnvLogLevel = "CBZMETA_LOG_LEVEL"
)

type rawConfig struct {
	APIBind           string `toml:"api_bind"`
	LogDir            string `toml:"log_dir"`
	LogLevel          string `toml:"log_level"`
	PrefsDB           string `toml:"prefs_db"`
	Events            string `toml:"events"`
	NATSURL           string `toml:"nats_url"`
	NATSSubjectPrefix string `toml:"nats_subject_prefix"`
	RequestTimeout    int    `toml:"request_timeout_seconds"`
}

// Load locates and parses the config, falling back to defaults when the
// file is missing. Variables from a .env file in the working directory are
// loaded first and environment overrides are applied last.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&raw)
	return normalize(raw)
}

func applyEnv(raw *rawConfig) {
	for name, dst := range map[string]*string{
		EnvAPIBind:  &raw.APIBind,
		EnvNATSURL:  &raw.NATSURL,
		EnvLogLevel: &raw.LogLevel,
	} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
}

func normalize(raw rawConfig) (Config, error) {
	cfg := Config{
		APIBind:           strings.TrimSpace(raw.APIBind),
		LogDir:            strings.TrimSpace(raw.LogDir),
		LogLevel:          strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		PrefsDB:           strings.TrimSpace(raw.PrefsDB),
		Events:            strings.ToLower(strings.TrimSpace(raw.Events)),
		NATSURL:           strings.TrimSpace(raw.NATSURL),
		NATSSubjectPrefix: strings.TrimSpace(raw.NATSSubjectPrefix),
		RequestTimeout:    time.Duration(raw.RequestTimeout) * time.Second,
	}

	if cfg.APIBind == "" {
		cfg.APIBind = defaultAPIBind
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir
	}
	cfg.LogDir = mustExpand(cfg.LogDir)
	if cfg.PrefsDB == "" {
		cfg.PrefsDB = filepath.Join(cfg.LogDir, "prefs.db")
	} else if cfg.PrefsDB != ":memory:" {
		cfg.PrefsDB = mustExpand(cfg.PrefsDB)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}

	switch cfg.Events {
	case "":
		cfg.Events = EventsWebsocket
	case EventsWebsocket, EventsNATS:
	default:
		return Config{}, fmt.Errorf("events must be %q or %q, got %q", EventsWebsocket, EventsNATS, raw.Events)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return cfg, nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// LogPath returns the path of the application log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/cbzmeta.log")
	}
	return filepath.Join(c.LogDir, "cbzmeta.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
