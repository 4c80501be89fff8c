package comic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageSettingsIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		settings PageSettings
		want     bool
	}{
		{"blank", BlankSettings(), true},
		{"zero value", PageSettings{}, true},
		{"whitespace bookmark", PageSettings{Bookmark: "  \t"}, true},
		{"typed", PageSettings{Type: PageStory}, false},
		{"double page", PageSettings{DoublePage: true}, false},
		{"bookmark", PageSettings{Bookmark: "Chapter 1"}, false},
		{"deleted", PageSettings{Type: PageDeleted}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsEmpty())
		})
	}
}

func TestPageSettingsEqualIsSymmetricAndReflexive(t *testing.T) {
	values := []PageSettings{
		BlankSettings(),
		{Type: PageStory},
		{Type: PageStory, DoublePage: true},
		{Type: PageFrontCover, Bookmark: "Cover"},
		{Bookmark: " "},
		{Bookmark: ""},
	}
	for _, a := range values {
		assert.True(t, a.Equal(a), "%v should equal itself", a)
		for _, b := range values {
			assert.Equal(t, a.Equal(b), b.Equal(a), "Equal(%v, %v) not symmetric", a, b)
		}
	}

	// A whitespace bookmark is empty but not equal to a blank one.
	assert.False(t, PageSettings{Bookmark: " "}.Equal(BlankSettings()))
}

func TestParsePageType(t *testing.T) {
	tests := map[string]PageType{
		"":                PageUnknown,
		"Story":           PageStory,
		"FrontCover":      PageFrontCover,
		"BackCover extra": PageBackCover,
		"  Letters":       PageLetters,
		"story":           PageUnknown,
		"Bogus":           PageUnknown,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParsePageType(input), "ParsePageType(%q)", input)
	}
}

func TestPageTypeText(t *testing.T) {
	for _, pt := range PageTypes() {
		text, err := pt.MarshalText()
		require.NoError(t, err)

		var back PageType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, pt, back)
	}

	assert.Equal(t, "Unknown", PageType(99).String())
	assert.NotContains(t, PageTypes(), PageLoading)
}

func TestPageSettingsApply(t *testing.T) {
	base := PageSettings{Type: PageStory, Bookmark: "Intro"}

	got := base.Apply(SetType(PageFrontCover))
	assert.Equal(t, PageSettings{Type: PageFrontCover, Bookmark: "Intro"}, got)

	got = base.Apply(SetDoublePage(true))
	assert.Equal(t, PageSettings{Type: PageStory, DoublePage: true, Bookmark: "Intro"}, got)

	got = base.Apply(SetBookmark(""))
	assert.Equal(t, PageSettings{Type: PageStory}, got)

	assert.Equal(t, base, base.Apply(SettingsUpdate{}))
	assert.Equal(t, "Intro", base.Bookmark, "Apply must not mutate the receiver")
}

func TestPagePayloadJSON(t *testing.T) {
	payload := PageSettings{Type: PageBackCover, DoublePage: true, Bookmark: "End"}.Payload(7)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Type":"BackCover","DoublePage":true,"Bookmark":"End","Image":7}`, string(data))
}
