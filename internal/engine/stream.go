package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/llehouerou/riptide/internal/api"
	"github.com/llehouerou/riptide/internal/queue"
)

// watchTrack runs one track from download start through its terminal state.
// The whole watch, reconnects included, is bounded by the stream timeout.
// When resume is true the start call is skipped and only the progress
// stream is reattached.
func (e *Engine) watchTrack(ctx context.Context, track queue.Track, attempts int, resume bool) {
	ctx, cancel := context.WithTimeout(ctx, e.streamTimeout)
	defer cancel()

	e.store.MarkStreaming(track.CatalogID)
	defer e.store.UnmarkStreaming(track.CatalogID)

	if !resume && !e.startDownload(ctx, track) {
		return
	}
	e.consumeStream(ctx, track, attempts)
}

// startDownload issues the start call, applying the one-shot quality
// fallback from the top tier. It returns true when a progress stream should
// be consumed afterwards.
func (e *Engine) startDownload(ctx context.Context, track queue.Track) bool {
	quality := e.quality()
	result, err := e.client.StartDownload(ctx, downloadRequest(track, quality))
	if err != nil {
		e.failStart(ctx, track, err)
		return false
	}

	if result.Outcome == api.NotFoundAtQuality && quality.IsHighest() {
		lower, ok := quality.NextLower()
		if ok {
			e.sendNotice(NoticeQualityFallback, fmt.Sprintf(
				"%s - %s not available at %s, retrying at %s",
				track.Artist, track.Title, quality, lower))
			result, err = e.client.StartDownload(ctx, downloadRequest(track, lower))
			if err != nil {
				e.failStart(ctx, track, err)
				return false
			}
		}
	}

	switch result.Outcome {
	case api.AlreadyExists:
		e.complete(track, result.Filename)
		return false
	case api.NotFoundAtQuality:
		e.fail(track, "not found on server")
		return false
	}
	return true
}

func downloadRequest(track queue.Track, quality api.Quality) api.DownloadRequest {
	return api.DownloadRequest{
		TrackID: track.CatalogID,
		Artist:  track.Artist,
		Title:   track.Title,
		Quality: quality,
	}
}

// quality resolves the tier to request: the server setting when cached,
// otherwise the configured default.
func (e *Engine) quality() api.Quality {
	if settings, ok := e.store.Settings(); ok && settings.Quality != "" {
		return api.Quality(settings.Quality)
	}
	return e.defaultQuality
}

func (e *Engine) failStart(ctx context.Context, track queue.Track, err error) {
	if errors.Is(err, api.ErrAuthRequired) {
		e.fail(track, "authentication required")
		return
	}
	if ctx.Err() != nil {
		e.failForContext(ctx, track)
		return
	}
	e.fail(track, err.Error())
}

// consumeStream reads progress frames until a terminal frame, reconnecting
// on broken streams within the attempts budget.
func (e *Engine) consumeStream(ctx context.Context, track queue.Track, attempts int) {
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				e.failForContext(ctx, track)
				return
			case <-time.After(e.streamRetryDelay):
			}
		}

		stream, err := e.client.OpenProgressStream(ctx, track.CatalogID)
		if err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				e.fail(track, "authentication required")
				return
			}
			if ctx.Err() != nil {
				e.failForContext(ctx, track)
				return
			}
			e.log.Debug("progress stream open failed",
				"track", track.CatalogID, "attempt", attempt+1, "err", err)
			continue
		}

		terminal := e.readFrames(stream, track)
		stream.Close()
		if terminal {
			return
		}
		if ctx.Err() != nil {
			e.failForContext(ctx, track)
			return
		}
		e.log.Debug("progress stream dropped, reconnecting",
			"track", track.CatalogID, "attempt", attempt+1)
	}

	e.fail(track, "connection lost")
}

// readFrames applies frames to the store until the stream ends. It returns
// true when a terminal frame was handled, false when the stream dropped and
// the caller should reconnect.
func (e *Engine) readFrames(stream *api.ProgressStream, track queue.Track) bool {
	for {
		frame, err := stream.Next()
		if err != nil {
			return false
		}

		if frame.Progress != nil {
			e.store.UpdateProgress(track.ID, *frame.Progress)
			if *frame.Progress >= 100 && frame.Status == "" {
				e.complete(track, frame.Filename)
				return true
			}
		}

		switch frame.Status {
		case api.StatusCompleted:
			e.complete(track, frame.Filename)
			return true
		case api.StatusNotFound:
			e.fail(track, "not found on server")
			return true
		case api.StatusFailed:
			message := frame.Error
			if message == "" {
				message = "download failed"
			}
			e.fail(track, message)
			return true
		}
	}
}

// complete and fail apply a live terminal transition and surface it when
// the track was in fact still downloading.
func (e *Engine) complete(track queue.Track, filename string) {
	if e.store.Complete(track.ID, filename) {
		e.sendTrackNotice(NoticeDownloadDone, track, "")
	}
}

func (e *Engine) fail(track queue.Track, message string) {
	if e.store.Fail(track.ID, message) {
		e.sendTrackNotice(NoticeDownloadFailed, track, message)
	}
}

// failForContext maps context termination to a track transition. A timeout
// fails the track; cancellation (Stop, shutdown) leaves it downloading so a
// later reconciliation can settle it.
func (e *Engine) failForContext(ctx context.Context, track queue.Track) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.fail(track, "timed out")
	}
}
