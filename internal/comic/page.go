package comic

import (
	"fmt"
	"strings"
)

// PageType is the role a page plays inside the comic.
type PageType int

// Page roles as named by the ComicInfo schema. PageUnknown is the zero value.
const (
	PageUnknown PageType = iota
	PageLoading
	PageFrontCover
	PageInnerCover
	PageRoundup
	PageStory
	PageAdvertisement
	PageEditorial
	PageLetters
	PagePreview
	PageBackCover
	PageOther
	PageDeleted
)

var pageTypeNames = [...]string{
	PageUnknown:       "Unknown",
	PageLoading:       "Loading",
	PageFrontCover:    "FrontCover",
	PageInnerCover:    "InnerCover",
	PageRoundup:       "Roundup",
	PageStory:         "Story",
	PageAdvertisement: "Advertisement",
	PageEditorial:     "Editorial",
	PageLetters:       "Letters",
	PagePreview:       "Preview",
	PageBackCover:     "BackCover",
	PageOther:         "Other",
	PageDeleted:       "Deleted",
}

// PageTypes lists the selectable page roles in display order.
func PageTypes() []PageType {
	return []PageType{
		PageUnknown,
		PageFrontCover,
		PageInnerCover,
		PageRoundup,
		PageStory,
		PageAdvertisement,
		PageEditorial,
		PageLetters,
		PagePreview,
		PageBackCover,
		PageOther,
		PageDeleted,
	}
}

func (t PageType) String() string {
	if t < 0 || int(t) >= len(pageTypeNames) {
		return pageTypeNames[PageUnknown]
	}
	return pageTypeNames[t]
}

// ParsePageType maps a metadata value to a PageType. Only the first
// whitespace separated token is considered; anything unrecognised is
// PageUnknown.
func ParsePageType(value string) PageType {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return PageUnknown
	}
	for i, name := range pageTypeNames {
		if name == fields[0] {
			return PageType(i)
		}
	}
	return PageUnknown
}

// MarshalText implements encoding.TextMarshaler.
func (t PageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PageType) UnmarshalText(text []byte) error {
	*t = ParsePageType(string(text))
	return nil
}

// PageSettings is the editable metadata of a single page.
type PageSettings struct {
	Type       PageType `json:"Type"`
	DoublePage bool     `json:"DoublePage"`
	Bookmark   string   `json:"Bookmark"`
}

// BlankSettings returns the empty settings value.
func BlankSettings() PageSettings {
	return PageSettings{Type: PageUnknown}
}

// IsEmpty reports whether the settings carry no information. Empty settings
// are never persisted.
func (s PageSettings) IsEmpty() bool {
	return s.Type == PageUnknown && !s.DoublePage && strings.TrimSpace(s.Bookmark) == ""
}

// Equal reports whether all fields match.
func (s PageSettings) Equal(other PageSettings) bool {
	return s.Type == other.Type &&
		s.DoublePage == other.DoublePage &&
		s.Bookmark == other.Bookmark
}

// IsBookmarked reports whether the page carries a non-blank bookmark.
func (s PageSettings) IsBookmarked() bool {
	return strings.TrimSpace(s.Bookmark) != ""
}

// Apply returns a copy of s with the fields set in u overwritten.
func (s PageSettings) Apply(u SettingsUpdate) PageSettings {
	if u.Type != nil {
		s.Type = *u.Type
	}
	if u.DoublePage != nil {
		s.DoublePage = *u.DoublePage
	}
	if u.Bookmark != nil {
		s.Bookmark = *u.Bookmark
	}
	return s
}

func (s PageSettings) String() string {
	return fmt.Sprintf("%s double=%t bookmark=%q", s.Type, s.DoublePage, s.Bookmark)
}

// SettingsUpdate is a partial PageSettings; nil fields are left untouched.
type SettingsUpdate struct {
	Type       *PageType
	DoublePage *bool
	Bookmark   *string
}

// SetType returns an update that changes only the page type.
func SetType(t PageType) SettingsUpdate {
	return SettingsUpdate{Type: &t}
}

// SetDoublePage returns an update that changes only the double page flag.
func SetDoublePage(v bool) SettingsUpdate {
	return SettingsUpdate{DoublePage: &v}
}

// SetBookmark returns an update that changes only the bookmark label.
func SetBookmark(label string) SettingsUpdate {
	return SettingsUpdate{Bookmark: &label}
}

// PagePayload is the wire shape of one page sent to the save operation.
type PagePayload struct {
	Type       string `json:"Type"`
	DoublePage bool   `json:"DoublePage"`
	Bookmark   string `json:"Bookmark"`
	Image      int    `json:"Image"`
}

// Payload converts settings to the save wire shape for the page at index.
func (s PageSettings) Payload(index int) PagePayload {
	return PagePayload{
		Type:       s.Type.String(),
		DoublePage: s.DoublePage,
		Bookmark:   s.Bookmark,
		Image:      index,
	}
}
