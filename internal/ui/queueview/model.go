// Package queueview provides the terminal view over the download queue
// mirror: queued, downloading, completed, and failed tracks with their live
// progress, plus the keyboard actions that drive the engine.
package queueview

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/riptide/internal/engine"
	"github.com/llehouerou/riptide/internal/queue"
)

// row is one selectable line in the flattened list.
type row struct {
	header bool
	title  string // section title when header is true
	track  queue.Track
}

// Model is the queue view state.
type Model struct {
	engine *engine.Engine
	store  *queue.Store

	// runCtx bounds engine work started from the view and outliving a
	// single update, like drive mode.
	runCtx context.Context

	width  int
	height int

	rows   []row
	cursor int
	offset int

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	status  string // transient message line, errors and notices
	loading bool   // completed-history page fetch in flight
}

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Remove        key.Binding
	Retry         key.Binding
	RetryAll      key.Binding
	ClearDone     key.Binding
	ClearFailed   key.Binding
	Start         key.Binding
	Stop          key.Binding
	LoadMore      key.Binding
	ToggleProcess key.Binding
	Quit          key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		Remove:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		Retry:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		RetryAll:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "retry all")),
		ClearDone:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "clear done")),
		ClearFailed:   key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "clear failed")),
		Start:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:          key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "stop")),
		LoadMore:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "more history")),
		ToggleProcess: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "auto-process")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Retry, k.Remove, k.ClearDone, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Quit},
		{k.Start, k.Stop, k.ToggleProcess},
		{k.Remove, k.Retry, k.RetryAll},
		{k.ClearDone, k.ClearFailed, k.LoadMore},
	}
}

// New creates the queue view. ctx bounds engine work the view starts.
func New(ctx context.Context, eng *engine.Engine, store *queue.Store) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return Model{
		engine:  eng,
		store:   store,
		runCtx:  ctx,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// rebuildRows flattens the store lists into the visible row list and keeps
// the cursor on a track row.
func (m *Model) rebuildRows() {
	m.rows = m.rows[:0]

	appendSection := func(title string, tracks []queue.Track) {
		if len(tracks) == 0 {
			return
		}
		m.rows = append(m.rows, row{header: true, title: title})
		for _, t := range tracks {
			m.rows = append(m.rows, row{track: t})
		}
	}

	appendSection("Downloading", m.store.Downloading())
	appendSection("Queued", m.store.Queued())
	appendSection("Failed", m.store.Failed())
	appendSection("Completed", m.store.Completed())

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampOffset()
}

// selectedTrack returns the track under the cursor, if any.
func (m Model) selectedTrack() (queue.Track, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].header {
		return queue.Track{}, false
	}
	return m.rows[m.cursor].track, true
}

// moveCursor moves by delta, skipping section headers.
func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	pos := m.cursor
	for {
		pos += delta
		if pos < 0 || pos >= len(m.rows) {
			return
		}
		if !m.rows[pos].header {
			m.cursor = pos
			m.clampOffset()
			return
		}
	}
}

func (m *Model) clampOffset() {
	visible := m.listHeight()
	if visible <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// listHeight is the number of rows that fit between header and footer.
func (m Model) listHeight() int {
	// header + separator above, status + help below
	h := m.height - 4
	if h < 0 {
		return 0
	}
	return h
}
