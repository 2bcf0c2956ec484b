package queueview

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/queue"
)

const actionTimeout = 15 * time.Second

// actionCmd runs a server-backed action off the update loop and reports the
// outcome on the status line.
func actionCmd(op errmsg.Op, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return statusMsg(errmsg.Format(op, err))
		}
		return statusMsg("")
	}
}

func (m Model) removeCmd(track queue.Track) tea.Cmd {
	return actionCmd(errmsg.OpQueueRemove, func(ctx context.Context) error {
		return m.engine.RemoveTrack(ctx, track)
	})
}

func (m Model) retryCmd(track queue.Track) tea.Cmd {
	return actionCmd(errmsg.OpQueueRetry, func(ctx context.Context) error {
		return m.engine.Retry(ctx, track)
	})
}

func (m Model) retryAllCmd() tea.Cmd {
	return actionCmd(errmsg.OpQueueRetryAll, func(ctx context.Context) error {
		_, err := m.engine.RetryAll(ctx)
		return err
	})
}

func (m Model) clearCompletedCmd() tea.Cmd {
	return actionCmd(errmsg.OpQueueClearCompleted, func(ctx context.Context) error {
		_, err := m.engine.ClearCompleted(ctx)
		return err
	})
}

func (m Model) clearFailedCmd() tea.Cmd {
	return actionCmd(errmsg.OpQueueClearFailed, func(ctx context.Context) error {
		_, err := m.engine.ClearFailed(ctx)
		return err
	})
}

func (m Model) toggleProcessingCmd() tea.Cmd {
	on := true
	if settings, ok := m.store.Settings(); ok {
		on = !settings.IsProcessing
	}
	op := errmsg.OpProcessingStart
	if !on {
		op = errmsg.OpProcessingStop
	}
	return actionCmd(op, func(ctx context.Context) error {
		return m.engine.SetProcessing(ctx, on)
	})
}

func (m Model) loadMoreCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return pageDoneMsg{err: m.engine.LoadMoreCompleted(ctx)}
	}
}
