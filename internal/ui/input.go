package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cbzmeta/internal/comic"
	"github.com/five82/cbzmeta/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.inputMode != inputNone {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.status = ""
		return m, nil
	}

	if m.session == nil || !m.snapshot.HasArchive() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Top):
		m.move(-len(m.pages))
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.pages))
	case key.Matches(msg, m.keys.PageUp):
		m.move(-max(1, m.listHeight()))
	case key.Matches(msg, m.keys.PageDown):
		m.move(max(1, m.listHeight()))
	case key.Matches(msg, m.keys.Confirm):
		if id := m.selectedID(); id != "" {
			return m, m.selectCmd(id)
		}
	case key.Matches(msg, m.keys.Goto):
		m.startInput(inputGoto, "page: ", "")
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Reload):
		m.setStatus("reloading")
		return m, m.reloadCmd()
	case key.Matches(msg, m.keys.Validate):
		return m, m.validateCmd()
	case key.Matches(msg, m.keys.CycleFilter):
		m.cycleFilter()
	case key.Matches(msg, m.keys.StreamPreviews):
		if m.streaming {
			return m, nil
		}
		m.streaming = true
		m.loaded, m.total = 0, len(m.snapshot.PageIDs)
		return m, m.streamCmd()
	case key.Matches(msg, m.keys.Save):
		if m.session.Settings().Saving() {
			return m, nil
		}
		m.setStatus("saving")
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.ResetAll):
		m.session.ResetAll(m.ctx)
		m.refreshPages()
		m.setStatus("all edits discarded")
	default:
		return m.handlePageKey(msg)
	}
	return m, nil
}

// handlePageKey handles the bindings that edit the selected page.
func (m Model) handlePageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.selectedID()
	if id == "" {
		return m, nil
	}
	current, _ := m.session.Settings().Current(id)

	switch {
	case key.Matches(msg, m.keys.CycleType):
		m.session.UpdatePage(m.ctx, id, comic.SetType(nextPageType(current.Type)))
	case key.Matches(msg, m.keys.ToggleDouble):
		m.session.UpdatePage(m.ctx, id, comic.SetDoublePage(!current.DoublePage))
	case key.Matches(msg, m.keys.Bookmark):
		m.startInput(inputBookmark, "bookmark: ", current.Bookmark)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.ClearBookmark):
		m.session.UpdatePage(m.ctx, id, comic.SetBookmark(""))
	case key.Matches(msg, m.keys.ResetPage):
		m.session.ResetPage(m.ctx, id)
	case key.Matches(msg, m.keys.SetTOC):
		if err := m.session.SetTOCFile(m.ctx, id); err != nil {
			m.setError("contents page: %v", err)
			return m, nil
		}
		m.setStatus("contents page set to %s", id)
	default:
		return m, nil
	}
	m.refreshPages()
	return m, nil
}

// handleInputKey routes keys to the active text prompt.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.stopInput()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		mode := m.inputMode
		m.stopInput()
		return m.submitInput(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput(mode inputMode, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case inputGoto:
		id, ok := m.session.FindPage(value, false)
		if !ok {
			id, ok = m.session.FindPage(value, true)
		}
		if !ok {
			m.setError("no page %q", strings.TrimSpace(value))
			return m, nil
		}
		if !slices.Contains(m.pages, id) {
			// The page is hidden by the filter.
			m.filter = FilterAll
			if err := m.session.SetFilter(m.ctx, false, false); err != nil {
				m.setError("filter: %v", err)
			}
			m.refreshPages()
		}
		m.selectID(id)
		m.clampSelection()
		return m, m.selectCmd(id)

	case inputBookmark:
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		m.session.UpdatePage(m.ctx, id, comic.SetBookmark(strings.TrimSpace(value)))
		m.refreshPages()
	}
	return m, nil
}

func (m *Model) startInput(mode inputMode, prompt, value string) {
	m.inputMode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) stopInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) move(delta int) {
	m.selected += delta
	m.clampSelection()
}

func (m *Model) cycleFilter() {
	next := (m.filter + 1) % 3
	if err := m.session.SetFilter(m.ctx, next == FilterEdited, next == FilterBookmarked); err != nil {
		m.setError("filter: %v", err)
		return
	}
	m.filter = next
	m.refreshPages()
	m.setStatus("filter: %s", m.filter)
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if m.prefsPath == "" {
		return
	}
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		m.setError("load prefs: %v", err)
		return
	}
	p.Theme = m.theme.Name
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.setError("save prefs: %v", err)
	}
}

func nextPageType(t comic.PageType) comic.PageType {
	types := comic.PageTypes()
	i := slices.Index(types, t)
	return types[(i+1)%len(types)]
}
