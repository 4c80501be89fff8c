// Package prefs handles cbzmeta user preferences.
//
// Application preferences (theme, recently opened archives) are stored in
// ~/.config/cbzmeta/prefs.toml. Per-archive preferences (selection, filters,
// unsaved page settings) go through a comic.KeyValueStore; see Archive.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds application-level preferences.
type Prefs struct {
	Theme          string   `toml:"theme"`
	LastArchive    string   `toml:"last_archive"`
	RecentArchives []string `toml:"recent_archives"`
}

const (
	defaultPrefsPath = "~/.config/cbzmeta/prefs.toml"
	defaultTheme     = "Nightfox"

	// MaxRecentArchives bounds RecentArchives.
	MaxRecentArchives = 10
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// AddRecent moves path to the front of the recent archives and records it
// as the last opened archive.
func (p *Prefs) AddRecent(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	p.LastArchive = path
	recent := slices.DeleteFunc(slices.Clone(p.RecentArchives), func(s string) bool { return s == path })
	recent = append([]string{path}, recent...)
	if len(recent) > MaxRecentArchives {
		recent = recent[:MaxRecentArchives]
	}
	p.RecentArchives = recent
}

// RemoveRecent drops path from the recent archives.
func (p *Prefs) RemoveRecent(path string) {
	p.RecentArchives = slices.DeleteFunc(p.RecentArchives, func(s string) bool { return s == path })
	if p.LastArchive == path {
		p.LastArchive = ""
	}
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	prefs := Prefs{Theme: defaultTheme}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	if len(prefs.RecentArchives) > MaxRecentArchives {
		prefs.RecentArchives = prefs.RecentArchives[:MaxRecentArchives]
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultPrefsPath)
	}
	return ExpandPath(path)
}

// ExpandPath resolves a leading "~" and makes path absolute.
func ExpandPath(path string) (string, error) {
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
