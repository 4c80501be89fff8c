package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cbzmeta/internal/prefs"
	"github.com/five82/cbzmeta/internal/preview"
	"github.com/five82/cbzmeta/internal/session"
	"github.com/five82/cbzmeta/internal/state"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   *session.Session
	ThemeName string
	PrefsPath string
}

// FilterMode is the page list filter shown in the UI.
type FilterMode int

const (
	FilterAll FilterMode = iota
	FilterEdited
	FilterBookmarked
)

func (f FilterMode) String() string {
	switch f {
	case FilterEdited:
		return "Edited"
	case FilterBookmarked:
		return "Bookmarked"
	default:
		return "All"
	}
}

type inputMode int

const (
	inputNone inputMode = iota
	inputGoto
	inputBookmark
)

// Messages.
type (
	snapshotMsg        state.Snapshot
	previewProgressMsg struct{ loaded, total int }
	previewDoneMsg     struct{ err error }
	saveDoneMsg        struct {
		bookmarks []string
		err       error
	}
	viewerMsg   struct{ err error }
	validateMsg struct{ message string }
	reloadMsg   struct{ err error }
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	session   *session.Session
	prefsPath string
	keys      keyMap
	theme     Theme

	width  int
	height int
	ready  bool

	snapshot state.Snapshot
	pages    []string
	filter   FilterMode
	selected int
	offset   int

	input     textinput.Model
	inputMode inputMode

	progress  progress.Model
	streaming bool
	loaded    int
	total     int

	status    string
	statusErr bool
	showHelp  bool

	// send forwards messages produced outside of commands, such as
	// preview progress. Nil in tests.
	send func(tea.Msg)
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.CharLimit = 128

	m := Model{
		ctx:       ctx,
		session:   opts.Session,
		prefsPath: prefsPath,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		input:     input,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	if m.session != nil {
		m.applySnapshot(m.session.Snapshot())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/3)
		m.ready = true
		m.clampSelection()
		return m, nil

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case previewProgressMsg:
		m.loaded, m.total = msg.loaded, msg.total
		return m, nil

	case previewDoneMsg:
		m.streaming = false
		if msg.err != nil {
			m.setError("previews: %v", msg.err)
		} else {
			m.setStatus("previews loaded")
		}
		return m, nil

	case saveDoneMsg:
		if msg.err != nil {
			m.setError("save: %v", msg.err)
		} else {
			m.setStatus("saved, %d bookmarks", len(msg.bookmarks))
		}
		m.refreshPages()
		return m, nil

	case viewerMsg:
		if msg.err != nil && !errors.Is(msg.err, preview.ErrStale) {
			m.setError("preview: %v", msg.err)
		}
		return m, nil

	case validateMsg:
		if msg.message == "" {
			m.setStatus("ComicInfo.xml is valid")
		} else {
			m.setError("%s", msg.message)
		}
		return m, nil

	case reloadMsg:
		if msg.err != nil {
			m.setError("reload: %v", msg.err)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m *Model) applySnapshot(s state.Snapshot) {
	pathChanged := s.Path != m.snapshot.Path
	m.snapshot = s
	m.refreshPages()
	if pathChanged && m.session != nil {
		f := m.session.Filter(m.ctx)
		m.filter = filterModeOf(f.EditedOnly, f.BookmarkedOnly)
		m.selected = 0
		m.offset = 0
		if id := m.session.SelectedPage(m.ctx); id != "" {
			m.selectID(id)
		}
	}
}

func filterModeOf(editedOnly, bookmarkedOnly bool) FilterMode {
	switch {
	case editedOnly:
		return FilterEdited
	case bookmarkedOnly:
		return FilterBookmarked
	default:
		return FilterAll
	}
}

// refreshPages recomputes the filtered page list, keeping the selected
// page when it is still listed.
func (m *Model) refreshPages() {
	current := m.selectedID()
	if m.session == nil {
		m.pages = nil
	} else {
		m.pages = m.session.Pages(m.ctx)
	}
	if current != "" {
		m.selectID(current)
	}
	m.clampSelection()
}

func (m *Model) selectID(id string) {
	for i, p := range m.pages {
		if p == id {
			m.selected = i
			return
		}
	}
}

func (m Model) selectedID() string {
	if m.selected < 0 || m.selected >= len(m.pages) {
		return ""
	}
	return m.pages[m.selected]
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.pages) {
		m.selected = len(m.pages) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	rows := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if rows > 0 && m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = true
}

// Commands.

func (m Model) selectCmd(id string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return viewerMsg{err: s.SelectPage(ctx, id)}
	}
}

func (m Model) saveCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		bookmarks, err := s.Save(ctx)
		return saveDoneMsg{bookmarks: bookmarks, err: err}
	}
}

func (m Model) streamCmd() tea.Cmd {
	s, ctx, send := m.session, m.ctx, m.send
	return func() tea.Msg {
		cb := preview.Callbacks{}
		if send != nil {
			cb.OnProgress = func(loaded, total int) {
				send(previewProgressMsg{loaded: loaded, total: total})
			}
		}
		return previewDoneMsg{err: s.StreamPreviews(ctx, cb)}
	}
}

func (m Model) validateCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return validateMsg{message: s.ValidateArchive(ctx)}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return reloadMsg{err: s.Reload(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or
// the context is cancelled.
func Run(opts Options) error {
	if opts.Session == nil {
		return fmt.Errorf("ui requires a session")
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	m := New(opts)

	var p *tea.Program
	m.send = func(msg tea.Msg) { p.Send(msg) }
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(opts.Context))

	unsubscribe := opts.Session.Subscribe(func(s state.Snapshot) {
		p.Send(snapshotMsg(s))
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
		return nil
	}
	return err
}
