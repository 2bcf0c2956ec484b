package queue

import (
	"time"

	"github.com/llehouerou/riptide/internal/api"
)

// ApplyServerSnapshot replaces local state with the server's canonical view.
// Local records are reused where catalog ids match so local ids and
// enqueue timestamps survive the overwrite. The one exception to "server
// wins": progress of a track with a live stream never regresses, because
// the stream owns that track until it terminates.
func (s *Store) ApplyServerSnapshot(snap *api.QueueSnapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]Track)
	for _, list := range [][]Track{s.queued, s.downloading, s.completed, s.failed} {
		for _, t := range list {
			if _, seen := index[t.CatalogID]; !seen {
				index[t.CatalogID] = t
			}
		}
	}

	adopt := func(entries []api.QueueTrack, status string) []Track {
		if len(entries) == 0 {
			return nil
		}
		out := make([]Track, 0, len(entries))
		for _, qt := range entries {
			local, known := index[qt.ID]
			if !known {
				out = append(out, applyServerFields(trackFromServer(qt, status), qt, status))
				continue
			}
			if status == StatusDownloading {
				if _, live := s.streaming[qt.ID]; live && local.Progress > qt.Progress {
					// Live stream owns progress; take everything else.
					merged := applyServerFields(local, qt, status)
					merged.Progress = local.Progress
					out = append(out, merged)
					continue
				}
			}
			out = append(out, applyServerFields(local, qt, status))
		}
		return out
	}

	s.queued = adopt(snap.Queued, StatusQueued)
	s.downloading = adopt(snap.Active, StatusDownloading)
	s.completed = adopt(snap.Completed, StatusCompleted)
	s.failed = adopt(snap.Failed, StatusFailed)

	s.page.Loading = false
	s.page.Offset = len(s.completed)
	s.page.Total = snap.CompletedTotal
	s.page.HasMore = snap.CompletedTotal > len(s.completed)

	if snap.Settings != nil {
		s.settings = *snap.Settings
		s.hasSettings = true
	}
}

// trackFromServer builds a local record for a track the server knows about
// but the client does not.
func trackFromServer(qt api.QueueTrack, status string) Track {
	now := time.Now()
	return Track{
		ID:          trackID(qt.ID, now),
		CatalogID:   qt.ID,
		Title:       qt.Title,
		Artist:      qt.Artist,
		Album:       qt.Album,
		Cover:       qt.Cover,
		TrackNumber: qt.TrackNumber,
		Status:      status,
		AddedAt:     now,
	}
}

// applyServerFields copies the server-reported lifecycle fields onto a
// local record.
func applyServerFields(t Track, qt api.QueueTrack, status string) Track {
	t.Status = status
	switch status {
	case StatusQueued:
		t.Progress = 0
		t.Error = ""
		t.Filename = ""
	case StatusDownloading:
		t.Progress = clampProgress(qt.Progress)
		t.Error = ""
		if t.StartedAt.IsZero() {
			t.StartedAt = time.Now()
		}
	case StatusCompleted:
		t.Progress = 100
		t.Error = ""
		t.Filename = qt.Filename
		if t.CompletedAt.IsZero() {
			t.CompletedAt = time.Now()
		}
	case StatusFailed:
		t.Error = qt.Error
		if t.FailedAt.IsZero() {
			t.FailedAt = time.Now()
		}
	}
	return t
}

// AllTracks returns every track in list order (queued, downloading,
// completed, failed) for persistence.
func (s *Store) AllTracks() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Track, 0, len(s.queued)+len(s.downloading)+len(s.completed)+len(s.failed))
	out = append(out, s.queued...)
	out = append(out, s.downloading...)
	out = append(out, s.completed...)
	out = append(out, s.failed...)
	return out
}

// Restore loads persisted tracks and settings into an empty store. The
// restored copy is a hint: callers reconcile against the server right
// after.
func (s *Store) Restore(tracks []Track, settings *api.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tracks {
		switch t.Status {
		case StatusQueued:
			s.queued = append(s.queued, t)
		case StatusDownloading:
			s.downloading = append(s.downloading, t)
		case StatusCompleted:
			s.completed = append(s.completed, t)
		case StatusFailed:
			s.failed = append(s.failed, t)
		default:
			s.log.Warn("dropping cached track with unknown status", "id", t.ID, "status", t.Status)
		}
	}

	s.page.Offset = len(s.completed)
	if s.page.Total < len(s.completed) {
		s.page.Total = len(s.completed)
	}
	s.page.HasMore = s.page.Total > len(s.completed)

	if settings != nil {
		s.settings = *settings
		s.hasSettings = true
	}
}
