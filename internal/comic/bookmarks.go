package comic

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// BookmarkedPages returns, in page order, the identifiers that carry a
// non-blank bookmark in settings and are still part of pageIDs.
func BookmarkedPages(settings map[string]PageSettings, pageIDs []string) []string {
	if len(settings) == 0 || len(pageIDs) == 0 {
		return nil
	}
	var out []string
	for _, id := range pageIDs {
		if s, ok := settings[id]; ok && s.IsBookmarked() {
			out = append(out, id)
		}
	}
	return out
}

// TOCEntry is one table-of-contents marker.
type TOCEntry struct {
	Page  int // 1-based
	ID    string
	Label string
}

// TOC lists the bookmarked pages with their page number and label.
func TOC(pageIDs []string, settings map[string]PageSettings) []TOCEntry {
	var out []TOCEntry
	for i, id := range pageIDs {
		s, ok := settings[id]
		if !ok || !s.IsBookmarked() {
			continue
		}
		out = append(out, TOCEntry{Page: i + 1, ID: id, Label: strings.TrimSpace(s.Bookmark)})
	}
	return out
}

// SettingsView is the read side of the page settings used by FilterPages.
type SettingsView interface {
	IsEdited(id string) bool
	Current(id string) (PageSettings, bool)
}

// Filter selects a subset of the page list. EditedOnly and BookmarkedOnly
// are exclusive; EditedOnly wins when both are set. TOCFile always passes.
type Filter struct {
	EditedOnly     bool
	BookmarkedOnly bool
	TOCFile        string
	// Bookmarks are the identifiers bookmarked in the persisted metadata.
	Bookmarks []string
}

// FilterPages applies f to pageIDs, keeping page order.
func FilterPages(pageIDs []string, f Filter, view SettingsView) []string {
	if !f.EditedOnly && !f.BookmarkedOnly {
		return slices.Clone(pageIDs)
	}

	out := make([]string, 0, len(pageIDs))
	for _, id := range pageIDs {
		if f.TOCFile != "" && id == f.TOCFile {
			out = append(out, id)
			continue
		}
		if f.EditedOnly {
			if view != nil && view.IsEdited(id) {
				out = append(out, id)
			}
			continue
		}
		if view != nil {
			if s, ok := view.Current(id); ok && s.IsBookmarked() {
				out = append(out, id)
				continue
			}
		}
		if slices.Contains(f.Bookmarks, id) {
			out = append(out, id)
		}
	}
	return out
}

// FindPage resolves a 1-based page number to a page identifier. With
// byFileName the number is matched against names like "page_007.jpg" or
// "7.png"; otherwise it indexes pageIDs.
func FindPage(pageNum string, byFileName bool, pageIDs []string) (string, bool) {
	num := strings.TrimSpace(pageNum)
	if num == "" {
		return "", false
	}

	if byFileName {
		digits := strings.TrimLeft(num, "0")
		if digits == "" {
			digits = "0"
		}
		re, err := regexp.Compile(`(?i)(^|[^0-9])(page[_-]?)?0*` + regexp.QuoteMeta(digits) + `\.[a-z0-9]+$`)
		if err != nil {
			return "", false
		}
		for _, id := range pageIDs {
			if re.MatchString(id) {
				return id, true
			}
		}
		return "", false
	}

	n, err := strconv.Atoi(num)
	if err != nil {
		return "", false
	}
	idx := n - 1
	if idx < 0 || idx >= len(pageIDs) {
		return "", false
	}
	return pageIDs[idx], true
}

// PageNumber returns the 1-based position of id in pageIDs, or 0.
func PageNumber(id string, pageIDs []string) int {
	return slices.Index(pageIDs, id) + 1
}
