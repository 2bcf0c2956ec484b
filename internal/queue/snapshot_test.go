package queue

import (
	"testing"

	"github.com/llehouerou/riptide/internal/api"
)

func TestApplyServerSnapshotReplacesLists(t *testing.T) {
	s := NewStore(nil)
	s.Enqueue([]Track{testTrack("a"), testTrack("b")})

	snap := &api.QueueSnapshot{
		Queued:         []api.QueueTrack{{ID: "b", Title: "Title b"}},
		Active:         []api.QueueTrack{{ID: "a", Progress: 35}},
		Completed:      []api.QueueTrack{{ID: "c", Filename: "c.flac"}},
		Failed:         []api.QueueTrack{{ID: "d", Error: "not found"}},
		CompletedTotal: 10,
	}
	s.ApplyServerSnapshot(snap)

	queued, downloading, completed, failed := s.Counts()
	if queued != 1 || downloading != 1 || completed != 1 || failed != 1 {
		t.Fatalf("counts = (%d, %d, %d, %d), want (1, 1, 1, 1)", queued, downloading, completed, failed)
	}

	active := s.Downloading()[0]
	if active.CatalogID != "a" || active.Progress != 35 || active.Status != StatusDownloading {
		t.Errorf("active track = %+v", active)
	}
	if got := s.Failed()[0].Error; got != "not found" {
		t.Errorf("failed error = %q, want %q", got, "not found")
	}

	page := s.Page()
	if page.Total != 10 || !page.HasMore {
		t.Errorf("page = %+v, want total 10 with more", page)
	}
}

func TestApplyServerSnapshotPreservesLocalIdentity(t *testing.T) {
	s := NewStore(nil)
	s.Enqueue([]Track{testTrack("a")})
	local := s.Queued()[0]

	s.ApplyServerSnapshot(&api.QueueSnapshot{
		Queued: []api.QueueTrack{{ID: "a", Title: "Title a"}},
	})

	after := s.Queued()[0]
	if after.ID != local.ID {
		t.Errorf("local id replaced: %q -> %q", local.ID, after.ID)
	}
	if !after.AddedAt.Equal(local.AddedAt) {
		t.Error("enqueue timestamp not preserved")
	}
}

func TestApplyServerSnapshotKeepsStreamedProgress(t *testing.T) {
	s := NewStore(nil)
	s.Enqueue([]Track{testTrack("a")})
	tr, _ := s.StartNext()
	s.UpdateProgress(tr.ID, 70)
	s.MarkStreaming(tr.CatalogID)

	// Stale snapshot reports lower progress
	s.ApplyServerSnapshot(&api.QueueSnapshot{
		Active: []api.QueueTrack{{ID: "a", Progress: 40}},
	})
	if got := s.Downloading()[0].Progress; got != 70 {
		t.Errorf("streamed progress regressed to %d, want 70", got)
	}

	// Without a live stream the server value wins
	s.UnmarkStreaming(tr.CatalogID)
	s.ApplyServerSnapshot(&api.QueueSnapshot{
		Active: []api.QueueTrack{{ID: "a", Progress: 40}},
	})
	if got := s.Downloading()[0].Progress; got != 40 {
		t.Errorf("progress = %d, want server value 40", got)
	}
}

func TestApplyServerSnapshotAdoptsSettings(t *testing.T) {
	s := NewStore(nil)

	s.ApplyServerSnapshot(&api.QueueSnapshot{
		Settings: &api.Settings{MaxConcurrentDownloads: 4, Version: 7},
	})

	settings, ok := s.Settings()
	if !ok {
		t.Fatal("settings not adopted")
	}
	if settings.MaxConcurrentDownloads != 4 || settings.Version != 7 {
		t.Errorf("settings = %+v", settings)
	}
}

func TestApplyServerSnapshotMovesTrackBetweenLists(t *testing.T) {
	s := NewStore(nil)
	s.Enqueue([]Track{testTrack("a")})
	tr, _ := s.StartNext()
	s.UpdateProgress(tr.ID, 90)

	// Server finished it while we were not watching
	s.ApplyServerSnapshot(&api.QueueSnapshot{
		Completed:      []api.QueueTrack{{ID: "a", Filename: "a.flac"}},
		CompletedTotal: 1,
	})

	_, downloading, completed, _ := s.Counts()
	if downloading != 0 || completed != 1 {
		t.Fatalf("counts = downloading %d completed %d, want 0 and 1", downloading, completed)
	}
	done := s.Completed()[0]
	if done.ID != tr.ID || done.Progress != 100 || done.Filename != "a.flac" {
		t.Errorf("completed track = %+v", done)
	}
}

func TestAllTracksOrder(t *testing.T) {
	s := NewStore(nil)
	s.Enqueue([]Track{testTrack("a"), testTrack("b"), testTrack("c"), testTrack("d")})
	ta, _ := s.StartNext()
	s.Complete(ta.ID, "a.flac")
	tb, _ := s.StartNext()
	s.Fail(tb.ID, "boom")
	s.StartNext() // c downloading

	all := s.AllTracks()
	if len(all) != 4 {
		t.Fatalf("AllTracks len = %d, want 4", len(all))
	}
	wantOrder := []string{"d", "c", "a", "b"} // queued, downloading, completed, failed
	for i, want := range wantOrder {
		if all[i].CatalogID != want {
			t.Errorf("AllTracks[%d] = %q, want %q", i, all[i].CatalogID, want)
		}
	}
}

func TestRestoreBucketsByStatus(t *testing.T) {
	s := NewStore(nil)

	tracks := []Track{
		{ID: "q-1", CatalogID: "q", Status: StatusQueued},
		{ID: "d-1", CatalogID: "d", Status: StatusDownloading, Progress: 50},
		{ID: "c-1", CatalogID: "c", Status: StatusCompleted, Progress: 100},
		{ID: "f-1", CatalogID: "f", Status: StatusFailed, Error: "boom"},
		{ID: "x-1", CatalogID: "x", Status: "bogus"},
	}
	s.Restore(tracks, &api.Settings{MaxConcurrentDownloads: 2, Version: 3})

	queued, downloading, completed, failed := s.Counts()
	if queued != 1 || downloading != 1 || completed != 1 || failed != 1 {
		t.Errorf("counts = (%d, %d, %d, %d), want one of each", queued, downloading, completed, failed)
	}

	settings, ok := s.Settings()
	if !ok || settings.Version != 3 {
		t.Errorf("restored settings = (%+v, %v)", settings, ok)
	}
}
