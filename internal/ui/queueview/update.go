package queueview

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/queue"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.rebuildRows()
		return m, nil

	case tickMsg:
		m.rebuildRows()
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case NoticeMsg:
		if msg.Message != "" {
			m.status = msg.Message
		}
		m.rebuildRows()
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case pageDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errmsg.Format(errmsg.OpQueueLoadMore, msg.err)
		}
		m.rebuildRows()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Start):
		m.engine.Start(m.runCtx)
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.engine.Stop()
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Remove):
		if t, ok := m.selectedTrack(); ok && t.Status == queue.StatusQueued {
			return m, m.removeCmd(t)
		}
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		if t, ok := m.selectedTrack(); ok && t.Status == queue.StatusFailed {
			return m, m.retryCmd(t)
		}
		return m, nil

	case key.Matches(msg, m.keys.RetryAll):
		return m, m.retryAllCmd()

	case key.Matches(msg, m.keys.ClearDone):
		return m, m.clearCompletedCmd()

	case key.Matches(msg, m.keys.ClearFailed):
		return m, m.clearFailedCmd()

	case key.Matches(msg, m.keys.ToggleProcess):
		return m, m.toggleProcessingCmd()

	case key.Matches(msg, m.keys.LoadMore):
		if m.loading || !m.store.Page().HasMore {
			return m, nil
		}
		m.loading = true
		return m, m.loadMoreCmd()
	}

	return m, nil
}
