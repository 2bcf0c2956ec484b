package engine

import (
	"context"
	"fmt"
)

// Reconcile settles every locally downloading track against the server's
// download state. Tracks the server finished are completed, tracks it
// failed are failed, tracks still active adopt the server's progress, and
// tracks the server no longer knows about are failed as lost. Tracks with a
// live stream are left to their watcher.
func (e *Engine) Reconcile(ctx context.Context) error {
	downloading := e.store.Downloading()
	if len(downloading) == 0 {
		return nil
	}

	state, err := e.client.FetchDownloadState(ctx)
	if err != nil {
		return fmt.Errorf("fetch download state: %w", err)
	}

	for _, track := range downloading {
		if e.store.IsStreaming(track.CatalogID) {
			continue
		}
		if entry, ok := state.Completed[track.CatalogID]; ok {
			e.log.Info("reconciled as completed", "track", track.CatalogID)
			e.store.Complete(track.ID, entry.Filename)
			continue
		}
		if entry, ok := state.Failed[track.CatalogID]; ok {
			message := entry.Error
			if message == "" {
				message = "failed on server"
			}
			e.log.Info("reconciled as failed", "track", track.CatalogID, "err", message)
			e.store.Fail(track.ID, message)
			continue
		}
		if entry, ok := state.Active[track.CatalogID]; ok {
			e.store.AdoptProgress(track.ID, entry.Progress)
			continue
		}
		e.log.Warn("download lost on server", "track", track.CatalogID)
		e.store.Fail(track.ID, "lost on server")
	}
	return nil
}
