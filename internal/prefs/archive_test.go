package prefs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/cbzmeta/internal/comic"
)

func TestArchive_NamespaceIsFileName(t *testing.T) {
	store := NewMemoryStore()
	a := ForArchive(store, "/comics/marvel/issue1.cbz")
	b := ForArchive(store, "/backup/issue1.cbz")
	assert.Equal(t, "issue1.cbz", a.Namespace())

	ctx := context.Background()
	require.NoError(t, a.SetSelectedFile(ctx, "003.jpg"))

	got, err := b.SelectedFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "003.jpg", got, "moved archive keeps its preferences")
}

func TestArchive_RoundTrips(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := ForArchive(store, "/comics/issue1.cbz")

	require.NoError(t, a.SetTOCFile(ctx, "002.jpg"))
	require.NoError(t, a.SetShowFiltered(ctx, true))
	require.NoError(t, a.SetBookmarkedFiles(ctx, []string{"002.jpg", "010.jpg"}))

	current := map[string]comic.PageSettings{
		"001.jpg": {Type: comic.PageFrontCover},
		"002.jpg": {Type: comic.PageStory, DoublePage: true, Bookmark: "Contents"},
	}
	require.NoError(t, a.SetCurrentPageSettings(ctx, current))
	require.NoError(t, a.SetOriginalPageSettings(ctx, map[string]comic.PageSettings{}))

	toc, err := a.TOCFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "002.jpg", toc)

	filtered, err := a.ShowFiltered(ctx)
	require.NoError(t, err)
	assert.True(t, filtered)

	bookmarkFiltered, err := a.ShowBookmarkFiltered(ctx)
	require.NoError(t, err)
	assert.False(t, bookmarkFiltered)

	bookmarks, err := a.BookmarkedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"002.jpg", "010.jpg"}, bookmarks)

	gotCurrent, err := a.CurrentPageSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, current, gotCurrent)

	raw, ok, err := store.Get(ctx, "issue1.cbz", KeyCurrentPageSettings)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"Type":"FrontCover"`)

	gotOriginal, err := a.OriginalPageSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotOriginal)
}

func TestArchive_CorruptValuesReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "issue1.cbz", KeyCurrentPageSettings, "{not json"))
	require.NoError(t, store.Set(ctx, "issue1.cbz", KeyBookmarkedFiles, "[1,"))

	a := ForArchive(store, "issue1.cbz")
	settings, err := a.CurrentPageSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings)

	bookmarks, err := a.BookmarkedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
}

func TestArchive_ClearAndEmptySetters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := ForArchive(store, "/comics/issue1.cbz")

	require.NoError(t, a.SetSelectedFile(ctx, "001.jpg"))
	require.NoError(t, a.SetSelectedFile(ctx, ""))
	_, ok, err := store.Get(ctx, a.Namespace(), KeySelectedFile)
	require.NoError(t, err)
	assert.False(t, ok, "empty selection deletes the key")

	require.NoError(t, a.SetBookmarkedFiles(ctx, nil))
	raw, _, err := store.Get(ctx, a.Namespace(), KeyBookmarkedFiles)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	require.NoError(t, a.SetTOCFile(ctx, "002.jpg"))
	require.NoError(t, a.Clear(ctx))
	toc, err := a.TOCFile(ctx)
	require.NoError(t, err)
	assert.Empty(t, toc)
}
