// Package queue holds the client-side mirror of the server-owned download
// queue: track records, their lifecycle state machine, and the store every
// other component reads and writes through.
package queue

import (
	"fmt"
	"time"
)

// Status constants for track lifecycle states.
const (
	StatusQueued      = "queued"
	StatusDownloading = "downloading"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// Track represents one catalog track and its download lifecycle. Records
// are created by Enqueue and mutated only through Store transitions.
type Track struct {
	// ID is locally unique: catalog id plus enqueue timestamp, so the same
	// catalog track can be requeued after completion or removal.
	ID          string
	CatalogID   string
	Title       string
	Artist      string
	Album       string
	Cover       string
	TrackNumber int

	Status   string
	Progress int    // 0-100, non-decreasing while downloading
	Error    string // set only when failed
	Filename string // set only when completed

	AddedAt     time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	FailedAt    time.Time
}

// NewTrack creates a queued track record with a fresh local id.
func NewTrack(catalogID, title, artist, album, cover string, trackNumber int) Track {
	now := time.Now()
	return Track{
		ID:          trackID(catalogID, now),
		CatalogID:   catalogID,
		Title:       title,
		Artist:      artist,
		Album:       album,
		Cover:       cover,
		TrackNumber: trackNumber,
		Status:      StatusQueued,
		AddedAt:     now,
	}
}

func trackID(catalogID string, addedAt time.Time) string {
	return fmt.Sprintf("%s-%d", catalogID, addedAt.UnixMilli())
}

// clampProgress bounds a reported percentage to 0-100.
func clampProgress(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// markDownloading transitions a queued track to downloading.
func markDownloading(t Track) Track {
	t.Status = StatusDownloading
	t.StartedAt = time.Now()
	return t
}

// markCompleted transitions a track to completed with the final filename.
func markCompleted(t Track, filename string) Track {
	t.Status = StatusCompleted
	t.Progress = 100
	t.Filename = filename
	t.Error = ""
	t.CompletedAt = time.Now()
	return t
}

// markFailed transitions a track to failed with an error message.
func markFailed(t Track, message string) Track {
	t.Status = StatusFailed
	t.Error = message
	t.FailedAt = time.Now()
	return t
}

// markRequeued moves a failed track back to queued, clearing error state.
func markRequeued(t Track) Track {
	t.Status = StatusQueued
	t.Error = ""
	t.Progress = 0
	t.Filename = ""
	t.StartedAt = time.Time{}
	t.FailedAt = time.Time{}
	return t
}
