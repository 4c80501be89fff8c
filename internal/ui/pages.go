package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/state"
)

const (
	headerHeight = 2
	footerHeight = 2
	listWidthPct = 55
)

// listHeight is the number of page rows that fit on screen.
func (m Model) listHeight() int {
	return max(0, m.height-headerHeight-footerHeight)
}

func (m Model) renderMain() string {
	listWidth := max(20, m.width*listWidthPct/100)
	detailWidth := max(0, m.width-listWidth-1)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Height(m.listHeight()).Render(m.renderPageList(listWidth)),
		lipgloss.NewStyle().
			Width(detailWidth).
			Height(m.listHeight()).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color(m.theme.Border)).
			PaddingLeft(1).
			Render(m.renderDetail()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	title := "no archive"
	if snap.HasArchive() {
		title = filepath.Base(snap.Path)
	}
	badge := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.StatusColor(snap.Status))).
		Padding(0, 1).
		Render(strings.ToUpper(snap.Status.String()))

	parts := []string{badge, styles.Text.Bold(true).Render(title)}
	if snap.ComicInfo != nil && snap.ComicInfo.Title != "" {
		parts = append(parts, styles.MutedText.Render(snap.ComicInfo.Title))
	}
	if n := len(snap.PageIDs); n > 0 {
		parts = append(parts, styles.FaintText.Render(fmt.Sprintf("%d pages", n)))
	}
	if m.session != nil && m.session.Settings().HasEdits() {
		parts = append(parts, styles.WarningText.Render(fmt.Sprintf("%d edited", len(m.session.Settings().EditedPages()))))
	}
	parts = append(parts, styles.FaintText.Render("filter: "+m.filter.String()))

	line := styles.Header.Width(m.width).Render(strings.Join(parts, "  "))

	var second string
	switch {
	case snap.LastError != nil:
		msg := comic.ErrorMessage(snap.LastError)
		if snap.IsOffline() {
			msg = "service unreachable: " + msg
		}
		second = styles.DangerText.Render(msg)
	case m.streaming:
		second = m.progress.ViewAs(ratio(m.loaded, m.total)) +
			styles.MutedText.Render(fmt.Sprintf(" %d/%d previews", m.loaded, m.total))
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, second)
}

func ratio(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func (m Model) renderPageList(width int) string {
	styles := m.theme.Styles()
	if !m.snapshot.HasArchive() {
		return styles.FaintText.Render("Open an archive to edit its pages.")
	}
	if m.snapshot.Status == state.Loading && len(m.pages) == 0 {
		return styles.FaintText.Render("Loading...")
	}
	if len(m.pages) == 0 {
		return styles.FaintText.Render("No pages match the filter.")
	}

	toc := ""
	if m.session != nil {
		toc = m.session.Filter(m.ctx).TOCFile
	}
	rows := m.listHeight()
	end := min(len(m.pages), m.offset+rows)

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		id := m.pages[i]
		line := m.renderPageRow(id, id == toc, width)
		if i == m.selected {
			line = styles.Selected.Width(width).Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderPageRow(id string, isTOC bool, width int) string {
	styles := m.theme.Styles()
	settings, _ := m.session.Settings().Current(id)
	num := comic.PageNumber(id, m.snapshot.PageIDs)

	marker := " "
	if m.session.Settings().IsEdited(id) {
		marker = styles.WarningText.Render("*")
	}
	typ := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.PageTypeColor(settings.Type))).
		Width(14).
		Render(settings.Type.String())

	flags := ""
	if settings.DoublePage {
		flags += styles.InfoText.Render(" [2]")
	}
	if isTOC {
		flags += styles.AccentText.Render(" [toc]")
	}
	if settings.IsBookmarked() {
		flags += styles.SuccessText.Render(" " + settings.Bookmark)
	}

	line := fmt.Sprintf("%s%4d  %s %s%s", marker, num, typ, id, flags)
	return truncate(line, width)
}

func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	if m.session == nil {
		return ""
	}

	var b strings.Builder
	id := m.selectedID()
	if id != "" {
		current, _ := m.session.Settings().Current(id)
		original, _ := m.session.Settings().Authoritative(id)
		b.WriteString(styles.Text.Bold(true).Render(id))
		b.WriteString("\n")
		b.WriteString(detailRow(styles, "Type", current.Type.String(), original.Type.String()))
		b.WriteString(detailRow(styles, "Double", fmt.Sprint(current.DoublePage), fmt.Sprint(original.DoublePage)))
		b.WriteString(detailRow(styles, "Bookmark", current.Bookmark, original.Bookmark))

		view := m.session.Viewer().State()
		if view.ID == id {
			switch {
			case view.Loading:
				b.WriteString(styles.InfoText.Render("loading preview..."))
			case view.Err != nil:
				b.WriteString(styles.DangerText.Render("preview: " + view.Err.Error()))
			case view.URL != "":
				b.WriteString(styles.SuccessText.Render(fmt.Sprintf("preview ready (%s)", previewSize(view.URL))))
			}
			b.WriteString("\n")
		} else if m.session.Previews().Store().Has(id) {
			b.WriteString(styles.FaintText.Render("preview cached"))
			b.WriteString("\n")
		}
	}

	if toc := m.session.TOC(); len(toc) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render("Contents"))
		b.WriteString("\n")
		for _, entry := range toc {
			b.WriteString(styles.FaintText.Render(fmt.Sprintf("%4d ", entry.Page)))
			b.WriteString(styles.Text.Render(entry.Label))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func detailRow(styles Styles, label, current, original string) string {
	row := styles.MutedText.Width(10).Render(label) + styles.Text.Render(current)
	if current != original {
		row += styles.FaintText.Render(" (was " + original + ")")
	}
	return row + "\n"
}

// previewSize reports the approximate decoded size of a data URL.
func previewSize(url string) string {
	_, data, ok := strings.Cut(url, ",")
	if !ok {
		return "?"
	}
	n := len(data) * 3 / 4
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()

	var top string
	switch {
	case m.inputMode != inputNone:
		top = m.input.View()
	case m.status != "" && m.statusErr:
		top = styles.DangerText.Render(m.status)
	case m.status != "":
		top = styles.SuccessText.Render(m.status)
	}

	hints := make([]string, 0, len(m.keys.ShortHelp()))
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		hints = append(hints, styles.AccentText.Render(h.Key)+" "+h.Desc)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, styles.Footer.Width(m.width).Render(strings.Join(hints, "  ")))
}

// truncate shortens s to width cells, keeping ANSI styling intact.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
