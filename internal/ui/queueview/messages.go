package queueview

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/riptide/internal/engine"
)

// tickMsg refreshes the view from the store on a fixed cadence. The engine
// polls the server on its own; the view only re-reads the mirror.
type tickMsg time.Time

// NoticeMsg carries an engine notice into the view. main forwards engine
// notices with Program.Send.
type NoticeMsg engine.Notice

// statusMsg sets the transient status line.
type statusMsg string

// pageDoneMsg reports the end of a completed-history page fetch.
type pageDoneMsg struct{ err error }

const viewRefresh = 250 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(viewRefresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
