package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type testAuth struct {
	key         string
	invalidated bool
}

func (a *testAuth) APIKey() string { return a.key }
func (a *testAuth) Invalidate()    { a.invalidated = true }

func newTestClient(handler http.HandlerFunc) (*Client, *testAuth, *httptest.Server) {
	server := httptest.NewServer(handler)
	auth := &testAuth{key: "test-key"}
	return NewClient(server.URL, auth), auth, server
}

func TestFetchQueue(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/queue" {
			t.Errorf("path = %q, want /queue", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		if got := r.URL.Query().Get("offset"); got != "0" {
			t.Errorf("offset = %q, want 0", got)
		}
		json.NewEncoder(w).Encode(QueueSnapshot{
			Queued:         []QueueTrack{{ID: "t1", Title: "Autobahn", Artist: "Kraftwerk"}},
			Active:         []QueueTrack{{ID: "t2", Progress: 40}},
			CompletedTotal: 12,
			Settings:       &Settings{MaxConcurrentDownloads: 3, Version: 4},
		})
	})
	defer server.Close()

	snap, err := client.FetchQueue(context.Background(), 0, 50)
	if err != nil {
		t.Fatalf("FetchQueue() error = %v", err)
	}
	if len(snap.Queued) != 1 || snap.Queued[0].Title != "Autobahn" {
		t.Errorf("queued = %+v", snap.Queued)
	}
	if len(snap.Active) != 1 || snap.Active[0].Progress != 40 {
		t.Errorf("active = %+v", snap.Active)
	}
	if snap.CompletedTotal != 12 {
		t.Errorf("completed total = %d, want 12", snap.CompletedTotal)
	}
	if snap.Settings == nil || snap.Settings.Version != 4 {
		t.Errorf("settings = %+v", snap.Settings)
	}
}

func TestFetchQueueNoPaging(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(QueueSnapshot{})
	})
	defer server.Close()

	if _, err := client.FetchQueue(context.Background(), 0, 0); err != nil {
		t.Fatalf("FetchQueue() error = %v", err)
	}
}

func TestUnauthorizedInvalidatesAuth(t *testing.T) {
	client, auth, server := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	_, err := client.FetchQueue(context.Background(), 0, 0)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("error = %v, want ErrAuthRequired", err)
	}
	if !auth.invalidated {
		t.Error("auth provider not invalidated on 401")
	}
}

func TestAddTracks(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/queue/add" {
			t.Errorf("request = %s %s, want POST /queue/add", r.Method, r.URL.Path)
		}
		var body struct {
			Tracks []TrackDescriptor `json:"tracks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Tracks) != 2 || body.Tracks[0].ID != "t1" {
			t.Errorf("tracks = %+v", body.Tracks)
		}
		json.NewEncoder(w).Encode(AddResult{Added: 1, Skipped: 1})
	})
	defer server.Close()

	result, err := client.AddTracks(context.Background(), []TrackDescriptor{
		{ID: "t1", Title: "Autobahn", Artist: "Kraftwerk"},
		{ID: "t2", Title: "Europe Endless", Artist: "Kraftwerk"},
	})
	if err != nil {
		t.Fatalf("AddTracks() error = %v", err)
	}
	if result.Added != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 added 1 skipped", result)
	}
}

func TestClearCompleted(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/queue/clear-completed" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(ClearResult{Cleared: 7})
	})
	defer server.Close()

	n, err := client.ClearCompleted(context.Background())
	if err != nil {
		t.Fatalf("ClearCompleted() error = %v", err)
	}
	if n != 7 {
		t.Errorf("cleared = %d, want 7", n)
	}
}

func TestStartDownloadStarted(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var req DownloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Quality != QualityHiRes {
			t.Errorf("quality = %q, want %q", req.Quality, QualityHiRes)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "downloading"})
	})
	defer server.Close()

	result, err := client.StartDownload(context.Background(), DownloadRequest{
		TrackID: "t1", Artist: "Kraftwerk", Title: "Autobahn", Quality: QualityHiRes,
	})
	if err != nil {
		t.Fatalf("StartDownload() error = %v", err)
	}
	if result.Outcome != StartedDownload {
		t.Errorf("outcome = %v, want StartedDownload", result.Outcome)
	}
}

func TestStartDownloadExists(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "exists", "filename": "autobahn.flac"})
	})
	defer server.Close()

	result, err := client.StartDownload(context.Background(), DownloadRequest{TrackID: "t1"})
	if err != nil {
		t.Fatalf("StartDownload() error = %v", err)
	}
	if result.Outcome != AlreadyExists || result.Filename != "autobahn.flac" {
		t.Errorf("result = %+v, want AlreadyExists with filename", result)
	}
}

func TestStartDownloadNotFound(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	result, err := client.StartDownload(context.Background(), DownloadRequest{TrackID: "t1"})
	if err != nil {
		t.Fatalf("StartDownload() 404 should not be an error, got %v", err)
	}
	if result.Outcome != NotFoundAtQuality {
		t.Errorf("outcome = %v, want NotFoundAtQuality", result.Outcome)
	}
}

func TestFetchDownloadState(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/state" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(DownloadState{
			Active:    map[string]StateEntry{"t1": {Progress: 55}},
			Completed: map[string]StateEntry{"t2": {Filename: "done.flac"}},
			Failed:    map[string]StateEntry{"t3": {Error: "gone"}},
		})
	})
	defer server.Close()

	state, err := client.FetchDownloadState(context.Background())
	if err != nil {
		t.Fatalf("FetchDownloadState() error = %v", err)
	}
	if state.Active["t1"].Progress != 55 {
		t.Errorf("active = %+v", state.Active)
	}
	if state.Completed["t2"].Filename != "done.flac" {
		t.Errorf("completed = %+v", state.Completed)
	}
	if state.Failed["t3"].Error != "gone" {
		t.Errorf("failed = %+v", state.Failed)
	}
}

func TestUpdateSettings(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var update SettingsUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if update.Version != 3 {
			t.Errorf("version = %d, want 3", update.Version)
		}
		if update.MaxConcurrentDownloads == nil || *update.MaxConcurrentDownloads != 5 {
			t.Errorf("max concurrent = %v, want 5", update.MaxConcurrentDownloads)
		}
		if update.AutoProcess != nil {
			t.Error("untouched field should be omitted")
		}
		json.NewEncoder(w).Encode(Settings{MaxConcurrentDownloads: 5, Version: 4})
	})
	defer server.Close()

	maxConcurrent := 5
	result, err := client.UpdateSettings(context.Background(), SettingsUpdate{
		MaxConcurrentDownloads: &maxConcurrent,
		Version:                3,
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if result.Conflict {
		t.Error("unexpected conflict")
	}
	if result.Settings.Version != 4 {
		t.Errorf("version = %d, want incremented to 4", result.Settings.Version)
	}
}

func TestUpdateSettingsConflict(t *testing.T) {
	client, _, server := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]any{
				"current_settings": Settings{MaxConcurrentDownloads: 2, Version: 9},
			},
		})
	})
	defer server.Close()

	result, err := client.UpdateSettings(context.Background(), SettingsUpdate{Version: 3})
	if err != nil {
		t.Fatalf("UpdateSettings() conflict should not be an error, got %v", err)
	}
	if !result.Conflict {
		t.Fatal("Conflict = false, want true")
	}
	if result.Settings.Version != 9 || result.Settings.MaxConcurrentDownloads != 2 {
		t.Errorf("conflict settings = %+v", result.Settings)
	}
}

func TestQualityNextLower(t *testing.T) {
	tests := []struct {
		in     Quality
		want   Quality
		wantOK bool
	}{
		{QualityHiRes, QualityLossless, true},
		{QualityLossless, QualityHigh, true},
		{QualityHigh, QualityLow, true},
		{QualityLow, QualityLow, false},
		{Quality("bogus"), Quality("bogus"), false},
	}
	for _, tt := range tests {
		got, ok := tt.in.NextLower()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NextLower(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
	if !QualityHiRes.IsHighest() {
		t.Error("QualityHiRes.IsHighest() = false")
	}
	if QualityLossless.IsHighest() {
		t.Error("QualityLossless.IsHighest() = true")
	}
}
