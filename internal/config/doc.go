// Package config loads cbzmeta's configuration.
//
// # Resolution
//
//  1. Variables from ./.env are loaded into the environment (godotenv);
//     variables already set win.
//  2. The TOML file is read from the given path, or
//     ~/.config/cbzmeta/config.toml. A missing file means defaults.
//  3. CBZMETA_API_BIND, CBZMETA_NATS_URL and CBZMETA_LOG_LEVEL override
//     the file when non-empty.
//  4. Empty values fall back to defaults and paths are tilde-expanded.
//
// # Keys
//
//	api_bind = "127.0.0.1:7488"         # archive service host:port or URL
//	log_dir = "~/.local/share/cbzmeta"  # holds cbzmeta.log
//	log_level = "info"                  # debug, info, warn, error
//	prefs_db = "<log_dir>/prefs.db"     # per-archive preferences, or ":memory:"
//	events = "websocket"                # or "nats"
//	nats_url = "nats://127.0.0.1:4222"
//	nats_subject_prefix = "cbz"
//	request_timeout_seconds = 10
//
// Unknown events values and unparsable log levels are errors.
package config
