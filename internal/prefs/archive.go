package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/five82/cbzmeta/internal/comic"
)

// Per-archive preference keys.
const (
	KeySelectedFile         = "selectedFile"
	KeyTOCFile              = "tocFile"
	KeyShowFiltered         = "fileListShowFiltered"
	KeyShowBookmarkFiltered = "fileListShowBookmarkFiltered"
	KeyBookmarkedFiles      = "bookmarkedFiles"
	KeyCurrentPageSettings  = "currentPageSettings"
	KeyOriginalPageSettings = "originalPageSettings"
)

var archiveKeys = []string{
	KeySelectedFile,
	KeyTOCFile,
	KeyShowFiltered,
	KeyShowBookmarkFiltered,
	KeyBookmarkedFiles,
	KeyCurrentPageSettings,
	KeyOriginalPageSettings,
}

// Archive reads and writes the preferences of one archive. Preferences are
// namespaced by the archive's file name, so the same comic keeps its state
// when it is moved between directories.
type Archive struct {
	store     comic.KeyValueStore
	namespace string
}

// ForArchive returns the preferences of the archive at path.
func ForArchive(store comic.KeyValueStore, path string) *Archive {
	return &Archive{store: store, namespace: filepath.Base(path)}
}

// Namespace returns the key namespace of the archive.
func (a *Archive) Namespace() string {
	return a.namespace
}

func (a *Archive) getString(ctx context.Context, key string) (string, error) {
	v, _, err := a.store.Get(ctx, a.namespace, key)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (a *Archive) setString(ctx context.Context, key, value string) error {
	if err := a.store.Set(ctx, a.namespace, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (a *Archive) getBool(ctx context.Context, key string) (bool, error) {
	v, err := a.getString(ctx, key)
	if err != nil {
		return false, err
	}
	b, _ := strconv.ParseBool(v)
	return b, nil
}

func (a *Archive) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	v, ok, err := a.store.Get(ctx, a.namespace, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok || v == "" {
		return false, nil
	}
	// Corrupt values are treated as absent.
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		return false, nil
	}
	return true, nil
}

func (a *Archive) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return a.setString(ctx, key, string(data))
}

// SelectedFile returns the page last selected in the archive.
func (a *Archive) SelectedFile(ctx context.Context) (string, error) {
	return a.getString(ctx, KeySelectedFile)
}

// SetSelectedFile records the selected page; an empty id clears it.
func (a *Archive) SetSelectedFile(ctx context.Context, id string) error {
	if id == "" {
		return a.store.Delete(ctx, a.namespace, KeySelectedFile)
	}
	return a.setString(ctx, KeySelectedFile, id)
}

// TOCFile returns the page holding the table of contents.
func (a *Archive) TOCFile(ctx context.Context) (string, error) {
	return a.getString(ctx, KeyTOCFile)
}

// SetTOCFile records the table of contents page; an empty id clears it.
func (a *Archive) SetTOCFile(ctx context.Context, id string) error {
	if id == "" {
		return a.store.Delete(ctx, a.namespace, KeyTOCFile)
	}
	return a.setString(ctx, KeyTOCFile, id)
}

// ShowFiltered reports whether the page list shows edited pages only.
func (a *Archive) ShowFiltered(ctx context.Context) (bool, error) {
	return a.getBool(ctx, KeyShowFiltered)
}

func (a *Archive) SetShowFiltered(ctx context.Context, v bool) error {
	return a.setString(ctx, KeyShowFiltered, strconv.FormatBool(v))
}

// ShowBookmarkFiltered reports whether the page list shows bookmarked
// pages only.
func (a *Archive) ShowBookmarkFiltered(ctx context.Context) (bool, error) {
	return a.getBool(ctx, KeyShowBookmarkFiltered)
}

func (a *Archive) SetShowBookmarkFiltered(ctx context.Context, v bool) error {
	return a.setString(ctx, KeyShowBookmarkFiltered, strconv.FormatBool(v))
}

// BookmarkedFiles returns the cached list of bookmarked pages.
func (a *Archive) BookmarkedFiles(ctx context.Context) ([]string, error) {
	var files []string
	if _, err := a.getJSON(ctx, KeyBookmarkedFiles, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (a *Archive) SetBookmarkedFiles(ctx context.Context, files []string) error {
	if files == nil {
		files = []string{}
	}
	return a.setJSON(ctx, KeyBookmarkedFiles, files)
}

// CurrentPageSettings returns the unsaved page settings snapshot.
func (a *Archive) CurrentPageSettings(ctx context.Context) (map[string]comic.PageSettings, error) {
	return a.pageSettings(ctx, KeyCurrentPageSettings)
}

func (a *Archive) SetCurrentPageSettings(ctx context.Context, settings map[string]comic.PageSettings) error {
	return a.setJSON(ctx, KeyCurrentPageSettings, settings)
}

// OriginalPageSettings returns the authoritative page settings snapshot.
func (a *Archive) OriginalPageSettings(ctx context.Context) (map[string]comic.PageSettings, error) {
	return a.pageSettings(ctx, KeyOriginalPageSettings)
}

func (a *Archive) SetOriginalPageSettings(ctx context.Context, settings map[string]comic.PageSettings) error {
	return a.setJSON(ctx, KeyOriginalPageSettings, settings)
}

func (a *Archive) pageSettings(ctx context.Context, key string) (map[string]comic.PageSettings, error) {
	var settings map[string]comic.PageSettings
	ok, err := a.getJSON(ctx, key, &settings)
	if err != nil {
		return nil, err
	}
	if !ok || settings == nil {
		return map[string]comic.PageSettings{}, nil
	}
	return settings, nil
}

// Clear removes every preference of the archive.
func (a *Archive) Clear(ctx context.Context) error {
	for _, key := range archiveKeys {
		if err := a.store.Delete(ctx, a.namespace, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}
