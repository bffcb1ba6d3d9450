// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/sprite-ai/trawl/internal/model"
	"github.com/sprite-ai/trawl/internal/session"
	"github.com/sprite-ai/trawl/internal/syntax"
)

type mode int

const (
	modeQueue mode = iota
	modeSearch
	modeFilter
	modeEdit
	modeNote
	modeConfirm
)

// Model is the top-level Bubble Tea model for trawl.
type Model struct {
	ctrl *session.Controller

	// UI state
	width  int
	height int
	mode   mode

	showHelp bool

	// Queue pane
	queue       []model.QueueEntry
	visible     []model.QueueEntry
	cursor      int
	filterInput textinput.Model
	filterQuery string

	// Search bar
	searchInput textinput.Model
	searchRegex bool
	searchSeq   int

	// Document pane
	docLines   []syntax.Line
	ranges     []model.Range
	scroll     int
	viewHeight int

	// Edit mode
	editor textarea.Model

	// Note modal
	noteInput  textarea.Model
	noteTarget string

	// Pending confirmation: either an open target or a quit request.
	pendingOpen string
	pendingQuit bool

	status string
}

// New creates a TUI model driven by the given session controller.
func New(ctrl *session.Controller) Model {
	si := textinput.New()
	si.Placeholder = "search pattern..."
	si.CharLimit = 256
	si.Width = 48

	fi := textinput.New()
	fi.Placeholder = "filter queue..."
	fi.CharLimit = 128
	fi.Width = 32

	ni := textarea.New()
	ni.Placeholder = "Enter a note..."
	ni.CharLimit = 1000
	ni.SetWidth(50)
	ni.SetHeight(4)

	ed := textarea.New()
	ed.CharLimit = 0

	return Model{
		ctrl:        ctrl,
		searchInput: si,
		filterInput: fi,
		noteInput:   ni,
		editor:      ed,
	}
}

// Messages produced by controller commands.
type initDoneMsg struct{ err error }

type searchDoneMsg struct {
	seq int
	err error
}

type openDoneMsg struct {
	id  string
	err error
}

type saveDoneMsg struct{ err error }

type advanceDoneMsg struct {
	res session.AdvanceResult
	err error
}

type reconcileDoneMsg struct{ err error }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{err: m.ctrl.Init(context.Background())}
	}
}

func (m Model) searchCmd(seq int, query string, isRegex bool) tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{seq: seq, err: m.ctrl.Search(context.Background(), query, isRegex)}
	}
}

func (m Model) openCmd(id string, discard bool) tea.Cmd {
	return func() tea.Msg {
		return openDoneMsg{id: id, err: m.ctrl.Open(context.Background(), id, discard)}
	}
}

func (m Model) saveCmd() tea.Cmd {
	return func() tea.Msg {
		return saveDoneMsg{err: m.ctrl.Save(context.Background())}
	}
}

func (m Model) advanceCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.ctrl.SaveAndAdvance(context.Background())
		return advanceDoneMsg{res: res, err: err}
	}
}

func reconcileCmd(fn session.ReconcileFunc) tea.Cmd {
	return func() tea.Msg {
		return reconcileDoneMsg{err: fn(context.Background())}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 6 // header, borders, status bar
		if m.viewHeight < 1 {
			m.viewHeight = 1
		}
		m.editor.SetWidth(m.docWidth() - 4)
		m.editor.SetHeight(m.viewHeight)
		return m, nil

	case initDoneMsg:
		if msg.err != nil {
			m.status = "init: " + msg.err.Error()
		}
		m.refreshQueue()
		return m, nil

	case searchDoneMsg:
		// A newer search supersedes this response; the controller already
		// refused its results, so skip the repaint too.
		if msg.seq != m.searchSeq {
			return m, nil
		}
		if msg.err != nil {
			m.status = "search: " + msg.err.Error()
		}
		m.refreshQueue()
		m.refreshDocument()
		return m, nil

	case openDoneMsg:
		if errors.Is(msg.err, session.ErrUnsavedChanges) {
			m.pendingOpen = msg.id
			m.mode = modeConfirm
			return m, nil
		}
		if msg.err != nil {
			m.status = "open: " + msg.err.Error()
			return m, nil
		}
		m.scroll = 0
		m.refreshQueue()
		m.refreshDocument()
		m.drainNotices()
		return m, nil

	case saveDoneMsg:
		switch {
		case errors.Is(msg.err, session.ErrConflict):
			m.status = "save conflict: the file changed on disk, your edits are kept"
		case msg.err != nil:
			m.status = "save: " + msg.err.Error()
		default:
			m.status = "saved"
		}
		m.refreshQueue()
		m.refreshDocument()
		m.drainNotices()
		return m, nil

	case advanceDoneMsg:
		switch {
		case errors.Is(msg.err, session.ErrConflict):
			m.status = "save conflict: staying on current file"
		case msg.err != nil:
			m.status = "advance: " + msg.err.Error()
		case !msg.res.Advanced:
			m.status = "end of queue"
		default:
			m.status = "→ " + msg.res.Target
			m.scroll = 0
		}
		m.refreshQueue()
		m.refreshDocument()
		m.drainNotices()
		return m, nil

	case reconcileDoneMsg:
		if msg.err != nil {
			m.status = "sync: " + msg.err.Error()
		}
		m.refreshQueue()
		m.drainNotices()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeFilter:
			return m.updateFilter(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeNote:
			return m.updateNote(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateQueue(msg)
	}

	return m, nil
}

func (m Model) updateQueue(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		if doc := m.ctrl.Current(); doc != nil && doc.Dirty() {
			m.pendingQuit = true
			m.mode = modeConfirm
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case msg.String() == "pgdown", msg.String() == "ctrl+d":
		if m.scroll < len(m.docLines)-1 {
			m.scroll += m.viewHeight / 2
			if m.scroll > len(m.docLines)-1 {
				m.scroll = len(m.docLines) - 1
			}
		}

	case msg.String() == "pgup", msg.String() == "ctrl+u":
		m.scroll -= m.viewHeight / 2
		if m.scroll < 0 {
			m.scroll = 0
		}

	case key.Matches(msg, keys.Open):
		if id, ok := m.selectedID(); ok {
			return m, m.openCmd(id, false)
		}

	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Filter):
		m.mode = modeFilter
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Edit):
		if doc := m.ctrl.Current(); doc != nil {
			m.editor.SetValue(doc.Content())
			m.editor.Focus()
			m.mode = modeEdit
			return m, textarea.Blink
		}
		m.status = "no file open"

	case key.Matches(msg, keys.Save):
		return m, m.saveCmd()

	case key.Matches(msg, keys.SaveNext):
		return m, m.advanceCmd()

	case key.Matches(msg, keys.Done):
		return m.mark(model.StatusDone)

	case key.Matches(msg, keys.Todo):
		return m.mark(model.StatusTodo)

	case key.Matches(msg, keys.Note):
		if id, ok := m.selectedID(); ok {
			m.noteTarget = id
			m.noteInput.SetValue(m.ctrl.Status(id).Note)
			m.noteInput.Focus()
			m.mode = modeNote
			return m, textarea.Blink
		}

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

// mark applies a status change to the selected entry and kicks off the
// background reconcile.
func (m Model) mark(status model.ReviewStatus) (tea.Model, tea.Cmd) {
	id, ok := m.selectedID()
	if !ok {
		return m, nil
	}
	_, reconcile := m.ctrl.MarkStatus(id, status)
	m.refreshQueue()
	return m, reconcileCmd(reconcile)
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeQueue
		m.searchInput.Blur()
		return m, nil
	case "ctrl+r":
		m.searchRegex = !m.searchRegex
		return m, nil
	case "enter":
		m.mode = modeQueue
		m.searchInput.Blur()
		m.searchSeq++
		return m, m.searchCmd(m.searchSeq, m.searchInput.Value(), m.searchRegex)
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeQueue
		m.filterInput.Blur()
		m.filterInput.Reset()
		m.filterQuery = ""
		m.applyFilter()
		return m, nil
	case "enter":
		m.mode = modeQueue
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	m.applyFilter()
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeQueue
		m.editor.Blur()
		if err := m.ctrl.Edit(m.editor.Value()); err != nil {
			m.status = err.Error()
		}
		m.refreshDocument()
		return m, nil
	case "ctrl+s":
		m.mode = modeQueue
		m.editor.Blur()
		if err := m.ctrl.Edit(m.editor.Value()); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, m.saveCmd()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) updateNote(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeQueue
		m.noteInput.Blur()
		m.noteInput.Reset()
		return m, nil
	case "ctrl+s", "ctrl+j":
		note := m.noteInput.Value()
		target := m.noteTarget
		m.mode = modeQueue
		m.noteInput.Blur()
		m.noteInput.Reset()
		_, reconcile := m.ctrl.SetNote(target, note)
		m.refreshQueue()
		return m, reconcileCmd(reconcile)
	}

	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeQueue
		if m.pendingQuit {
			return m, tea.Quit
		}
		id := m.pendingOpen
		m.pendingOpen = ""
		return m, m.openCmd(id, true)
	case "n", "N", "esc":
		m.mode = modeQueue
		m.pendingOpen = ""
		m.pendingQuit = false
		return m, nil
	}
	return m, nil
}

func (m *Model) refreshQueue() {
	m.queue = m.ctrl.Queue()
	m.applyFilter()
}

func (m *Model) applyFilter() {
	if m.filterQuery == "" {
		m.visible = m.queue
	} else {
		ids := make([]string, len(m.queue))
		for i, e := range m.queue {
			ids[i] = e.ArtifactID
		}
		matches := fuzzy.Find(m.filterQuery, ids)
		m.visible = make([]model.QueueEntry, 0, len(matches))
		for _, match := range matches {
			m.visible = append(m.visible, m.queue[match.Index])
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) refreshDocument() {
	doc := m.ctrl.Current()
	if doc == nil {
		m.docLines = nil
		m.ranges = nil
		return
	}
	m.docLines = syntax.Colorize(doc.ID(), doc.Content())
	ranges, err := m.ctrl.Highlights()
	if err != nil {
		var mp *session.MalformedPatternError
		if errors.As(err, &mp) {
			m.status = fmt.Sprintf("bad pattern %q", mp.Pattern)
		}
		m.ranges = nil
		return
	}
	m.ranges = ranges
	if m.scroll >= len(m.docLines) {
		m.scroll = 0
	}
}

func (m *Model) drainNotices() {
	for _, n := range m.ctrl.Notices() {
		m.status = n
	}
}

func (m Model) selectedID() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return "", false
	}
	return m.visible[m.cursor].ArtifactID, true
}

// Run starts the TUI application.
func Run(ctrl *session.Controller) error {
	m := New(ctrl)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
