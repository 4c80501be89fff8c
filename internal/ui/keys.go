package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Cancel     key.Binding
	Confirm    key.Binding

	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Goto     key.Binding

	CycleType      key.Binding
	ToggleDouble   key.Binding
	Bookmark       key.Binding
	ClearBookmark  key.Binding
	ResetPage      key.Binding
	ResetAll       key.Binding
	Save           key.Binding
	SetTOC         key.Binding
	CycleFilter    key.Binding
	StreamPreviews key.Binding
	Reload         key.Binding
	Validate       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "Quit")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "Toggle help")),
		CycleTheme: key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "Cycle theme")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "Cancel")),
		Confirm:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "Show page / confirm")),

		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "Move up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/down", "Move down")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "First page")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "Last page")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("ctrl+u", "Page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("ctrl+d", "Page down")),
		Goto:     key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "Go to page number")),

		CycleType:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "Cycle page type")),
		ToggleDouble:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "Toggle double page")),
		Bookmark:       key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "Edit bookmark")),
		ClearBookmark:  key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "Clear bookmark")),
		ResetPage:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Reset page")),
		ResetAll:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "Reset all pages")),
		Save:           key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "Save to archive")),
		SetTOC:         key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "Mark contents page")),
		CycleFilter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "Cycle filter")),
		StreamPreviews: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "Load all previews")),
		Reload:         key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "Reload archive")),
		Validate:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "Validate ComicInfo.xml")),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.CycleType, k.Bookmark, k.Save, k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Goto, k.Confirm},
		{k.CycleType, k.ToggleDouble, k.Bookmark, k.ClearBookmark, k.SetTOC, k.ResetPage, k.ResetAll, k.Save},
		{k.CycleFilter, k.StreamPreviews, k.Reload, k.Validate},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
