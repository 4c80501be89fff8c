package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/five82/cbzmeta/internal/comic"
)

// Run executes the pages command.
func (c *PagesCmd) Run(deps *Dependencies) error {
	if err := deps.Env.OpenArchive(deps.Ctx, c.Archive); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", comic.ErrorMessage(err))
		return err
	}
	s := deps.Env.Session
	snap := s.Snapshot()

	f := comic.Filter{
		EditedOnly:     c.Filter == "edited",
		BookmarkedOnly: c.Filter == "bookmarked",
		Bookmarks:      snap.Bookmarks,
	}
	ids := comic.FilterPages(snap.PageIDs, f, s.Settings())
	if len(ids) == 0 {
		fmt.Fprintln(deps.Stdout, "No pages.")
		return nil
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("#", "FILE", "TYPE", "DOUBLE", "BOOKMARK", "EDITED")
	for _, id := range ids {
		settings, _ := s.Settings().Current(id)
		edited := ""
		if s.Settings().IsEdited(id) {
			edited = "*"
		}
		double := ""
		if settings.DoublePage {
			double = "yes"
		}
		t.Row(
			strconv.Itoa(comic.PageNumber(id, snap.PageIDs)),
			id,
			settings.Type.String(),
			double,
			settings.Bookmark,
			edited,
		)
	}
	fmt.Fprintln(deps.Stdout, t.String())
	return nil
}

// Run executes the bookmarks command.
func (c *BookmarksCmd) Run(deps *Dependencies) error {
	if err := deps.Env.OpenArchive(deps.Ctx, c.Archive); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", comic.ErrorMessage(err))
		return err
	}

	toc := deps.Env.Session.TOC()
	if len(toc) == 0 {
		fmt.Fprintln(deps.Stdout, "No bookmarks.")
		return nil
	}
	for _, entry := range toc {
		fmt.Fprintf(deps.Stdout, "%4d  %s  %s\n", entry.Page, entry.Label, entry.ID)
	}
	return nil
}

// Run executes the set command.
func (c *SetCmd) Run(deps *Dependencies) error {
	update, err := c.update()
	if err != nil {
		return err
	}
	if err := deps.Env.OpenArchive(deps.Ctx, c.Archive); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", comic.ErrorMessage(err))
		return err
	}
	s := deps.Env.Session

	id, ok := s.FindPage(c.Page, false)
	if !ok {
		return fmt.Errorf("no page %s in %s", c.Page, c.Archive)
	}
	settings := s.UpdatePage(deps.Ctx, id, update)
	fmt.Fprintf(deps.Stdout, "%s: %s\n", id, settings)

	if !c.Save {
		if n := len(s.Settings().EditedPages()); n > 0 {
			fmt.Fprintf(deps.Stdout, "%d unsaved page(s); run with --save to write them\n", n)
		}
		return nil
	}
	bookmarks, err := s.Save(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", comic.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Saved %s (%d bookmarks)\n", c.Archive, len(bookmarks))
	return nil
}

func (c *SetCmd) update() (comic.SettingsUpdate, error) {
	var u comic.SettingsUpdate
	if name := strings.TrimSpace(c.Type); name != "" {
		t := comic.ParsePageType(name)
		if t == comic.PageUnknown && !strings.EqualFold(name, comic.PageUnknown.String()) {
			return u, fmt.Errorf("unknown page type %q", name)
		}
		u.Type = &t
	}
	switch {
	case c.Double:
		u = merge(u, comic.SetDoublePage(true))
	case c.Single:
		u = merge(u, comic.SetDoublePage(false))
	}
	switch {
	case c.ClearBookmark && c.Bookmark != "":
		return u, errors.New("--bookmark and --clear-bookmark are exclusive")
	case c.ClearBookmark:
		u = merge(u, comic.SetBookmark(""))
	case c.Bookmark != "":
		u = merge(u, comic.SetBookmark(strings.TrimSpace(c.Bookmark)))
	}
	if u.Type == nil && u.DoublePage == nil && u.Bookmark == nil && !c.Save {
		return u, errors.New("nothing to change; pass --type, --double, --single, --bookmark or --clear-bookmark")
	}
	return u, nil
}

func merge(a, b comic.SettingsUpdate) comic.SettingsUpdate {
	if b.Type != nil {
		a.Type = b.Type
	}
	if b.DoublePage != nil {
		a.DoublePage = b.DoublePage
	}
	if b.Bookmark != nil {
		a.Bookmark = b.Bookmark
	}
	return a
}
