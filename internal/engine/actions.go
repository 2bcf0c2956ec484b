package engine

import (
	"context"
	"fmt"

	"github.com/llehouerou/riptide/internal/api"
	"github.com/llehouerou/riptide/internal/queue"
)

// Enqueue pushes track descriptors to the server queue and mirrors them
// locally. Duplicates (already queued, downloading, or completed) are
// skipped; the returned counts are the local ones.
func (e *Engine) Enqueue(ctx context.Context, descriptors []api.TrackDescriptor) (added, skipped int, err error) {
	if len(descriptors) == 0 {
		return 0, 0, nil
	}

	serverResult, err := e.client.AddTracks(ctx, descriptors)
	if err != nil {
		return 0, 0, fmt.Errorf("add tracks: %w", err)
	}

	tracks := make([]queue.Track, 0, len(descriptors))
	for _, d := range descriptors {
		tracks = append(tracks, queue.NewTrack(d.ID, d.Title, d.Artist, d.Album, d.Cover, d.TrackNumber))
	}
	added, skipped = e.store.Enqueue(tracks)
	if added != serverResult.Added {
		e.log.Debug("enqueue count differs from server",
			"local", added, "server", serverResult.Added)
	}

	e.kickDispatch()
	return added, skipped, nil
}

// RemoveTrack deletes one queued track on the server and locally.
func (e *Engine) RemoveTrack(ctx context.Context, track queue.Track) error {
	if err := e.client.RemoveTrack(ctx, track.CatalogID); err != nil {
		return fmt.Errorf("remove track: %w", err)
	}
	e.store.Remove(track.ID)
	return nil
}

// Retry requeues one failed track on the server and locally.
func (e *Engine) Retry(ctx context.Context, track queue.Track) error {
	if err := e.client.RetryTrack(ctx, track.CatalogID); err != nil {
		return fmt.Errorf("retry track: %w", err)
	}
	e.store.Retry(track.ID)
	e.kickDispatch()
	return nil
}

// RetryAll requeues every failed track and returns how many were requeued.
func (e *Engine) RetryAll(ctx context.Context) (int, error) {
	if err := e.client.RetryAllFailed(ctx); err != nil {
		return 0, fmt.Errorf("retry all: %w", err)
	}
	n := e.store.RetryAll()
	e.kickDispatch()
	return n, nil
}

// ClearQueue drops all queued tracks on the server and locally.
func (e *Engine) ClearQueue(ctx context.Context) (int, error) {
	if _, err := e.client.ClearQueue(ctx); err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return e.store.ClearQueued(), nil
}

// ClearCompleted drops the server's completed history and the local cache.
func (e *Engine) ClearCompleted(ctx context.Context) (int, error) {
	if _, err := e.client.ClearCompleted(ctx); err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return e.store.ClearCompleted(), nil
}

// ClearFailed drops all failed tracks on the server and locally.
func (e *Engine) ClearFailed(ctx context.Context) (int, error) {
	if _, err := e.client.ClearFailed(ctx); err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return e.store.ClearFailed(), nil
}

// SetProcessing toggles server-side auto-processing and mirrors the flag in
// the settings cache.
func (e *Engine) SetProcessing(ctx context.Context, on bool) error {
	var err error
	if on {
		err = e.client.StartProcessing(ctx)
	} else {
		err = e.client.StopProcessing(ctx)
	}
	if err != nil {
		return fmt.Errorf("set processing: %w", err)
	}
	if settings, ok := e.store.Settings(); ok {
		settings.IsProcessing = on
		e.store.SetSettings(settings)
	}
	return nil
}

// LoadMoreCompleted fetches the next page of completed history. It is a
// no-op while a fetch is in flight or when the history is fully loaded.
func (e *Engine) LoadMoreCompleted(ctx context.Context) error {
	offset, limit, ok := e.store.BeginPageFetch()
	if !ok {
		return nil
	}
	snap, err := e.client.FetchQueue(ctx, offset, limit)
	if err != nil {
		e.store.AbortPageFetch()
		return fmt.Errorf("fetch completed page: %w", err)
	}
	e.store.FinishPageFetch(snap.Completed, snap.CompletedTotal)
	return nil
}
