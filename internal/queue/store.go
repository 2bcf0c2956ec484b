package queue

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/riptide/internal/api"
)

// defaultPageLimit is the completed-history page size requested from the
// server when the config does not override it.
const defaultPageLimit = 50

// CompletedPage tracks the pagination window over the server's completed
// history. Offset only advances after a successful page fetch.
type CompletedPage struct {
	Offset  int
	Limit   int
	Total   int
	HasMore bool
	Loading bool
}

// Store is the single source of truth for all track lists, the settings
// cache, and the completed-history cursor. All mutation goes through its
// transition operations; none of them panic, and transitions on ids that
// are not in the expected source list are logged and ignored.
type Store struct {
	mu  sync.RWMutex
	log *log.Logger

	queued      []Track
	downloading []Track
	completed   []Track
	failed      []Track

	// streaming holds catalog ids with a live progress stream. While a
	// stream is open it owns the track's progress: server snapshots never
	// regress it.
	streaming map[string]struct{}

	settings    api.Settings
	hasSettings bool

	page CompletedPage
}

// NewStore creates an empty store. A nil logger discards log output.
func NewStore(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		log:       logger,
		streaming: make(map[string]struct{}),
		page:      CompletedPage{Limit: defaultPageLimit},
	}
}

// SetPageLimit overrides the completed-history page size. Values below 1
// keep the default.
func (s *Store) SetPageLimit(limit int) {
	if limit < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.Limit = limit
}

// Enqueue adds tracks to the queued list. A track whose catalog id is
// already present in queued, downloading, or completed is skipped. Returns
// the number added and the number skipped as duplicates.
func (s *Store) Enqueue(tracks []Track) (added, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tracks {
		if s.catalogPresentLocked(t.CatalogID) {
			skipped++
			continue
		}
		t.Status = StatusQueued
		s.queued = append(s.queued, t)
		added++
	}
	return added, skipped
}

// catalogPresentLocked reports whether a catalog id occupies one of the
// dedup lists. Failed tracks do not count, so a failed track can be
// requeued.
func (s *Store) catalogPresentLocked(catalogID string) bool {
	for _, list := range [][]Track{s.queued, s.downloading, s.completed} {
		if indexByCatalog(list, catalogID) >= 0 {
			return true
		}
	}
	return false
}

// StartNext pops the head of the queued list and transitions it to
// downloading. Returns false when the queue is empty.
func (s *Store) StartNext() (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queued) == 0 {
		return Track{}, false
	}
	t := markDownloading(s.queued[0])
	s.queued = append([]Track(nil), s.queued[1:]...)
	s.downloading = append(s.downloading, t)
	return t, true
}

// StartDownloading transitions a specific queued track to downloading.
func (s *Store) StartDownloading(id string) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.queued, id)
	if i < 0 {
		s.log.Debug("start ignored, track not queued", "id", id)
		return Track{}, false
	}
	t := markDownloading(s.queued[i])
	s.queued = append(s.queued[:i:i], s.queued[i+1:]...)
	s.downloading = append(s.downloading, t)
	return t, true
}

// UpdateProgress records stream progress for a downloading track. Progress
// is clamped to 0-100 and never decreases.
func (s *Store) UpdateProgress(id string, pct int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.downloading, id)
	if i < 0 {
		s.log.Debug("progress ignored, track not downloading", "id", id)
		return false
	}
	pct = clampProgress(pct)
	if pct > s.downloading[i].Progress {
		s.downloading[i].Progress = pct
	}
	return true
}

// AdoptProgress overwrites a downloading track's progress with a server
// snapshot value, unless a live stream currently owns the track.
func (s *Store) AdoptProgress(id string, pct int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.downloading, id)
	if i < 0 {
		return false
	}
	if _, live := s.streaming[s.downloading[i].CatalogID]; live {
		return false
	}
	s.downloading[i].Progress = clampProgress(pct)
	return true
}

// Complete transitions a downloading track to completed.
func (s *Store) Complete(id, filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.downloading, id)
	if i < 0 {
		s.log.Debug("complete ignored, track not downloading", "id", id)
		return false
	}
	t := markCompleted(s.downloading[i], filename)
	s.downloading = append(s.downloading[:i:i], s.downloading[i+1:]...)
	s.completed = append(s.completed, t)
	s.completedTotalLocked(1)
	return true
}

// Fail transitions a downloading track to failed with an error message.
func (s *Store) Fail(id, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.downloading, id)
	if i < 0 {
		s.log.Debug("fail ignored, track not downloading", "id", id)
		return false
	}
	t := markFailed(s.downloading[i], message)
	s.downloading = append(s.downloading[:i:i], s.downloading[i+1:]...)
	s.failed = append(s.failed, t)
	return true
}

func (s *Store) completedTotalLocked(delta int) {
	s.page.Total += delta
	s.page.HasMore = s.page.Total > len(s.completed)
}

// Retry moves a failed track back to the end of the queue, clearing its
// error and progress.
func (s *Store) Retry(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.failed, id)
	if i < 0 {
		s.log.Debug("retry ignored, track not failed", "id", id)
		return false
	}
	t := markRequeued(s.failed[i])
	s.failed = append(s.failed[:i:i], s.failed[i+1:]...)
	s.queued = append(s.queued, t)
	return true
}

// RetryAll requeues every failed track and returns the count.
func (s *Store) RetryAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.failed)
	for _, t := range s.failed {
		s.queued = append(s.queued, markRequeued(t))
	}
	s.failed = nil
	return n
}

// Remove deletes one queued track.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexByID(s.queued, id)
	if i < 0 {
		return false
	}
	s.queued = append(s.queued[:i:i], s.queued[i+1:]...)
	return true
}

// ClearQueued drops all queued tracks.
func (s *Store) ClearQueued() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.queued)
	s.queued = nil
	return n
}

// ClearCompleted drops the completed list and resets the history cursor.
// Used after the server's completed history has been cleared.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.completed)
	s.completed = nil
	s.page = CompletedPage{Limit: s.page.Limit}
	return n
}

// ClearFailed drops all failed tracks.
func (s *Store) ClearFailed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.failed)
	s.failed = nil
	return n
}

// ClearCompletedView drops only the cached completed page window. The
// server's durable record (and our idea of its total) is untouched.
func (s *Store) ClearCompletedView() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed = nil
	s.page.Offset = 0
	s.page.Loading = false
	s.page.HasMore = s.page.Total > 0
}

// MarkStreaming records that a live progress stream owns the track's
// progress until UnmarkStreaming is called.
func (s *Store) MarkStreaming(catalogID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming[catalogID] = struct{}{}
}

// UnmarkStreaming releases stream ownership of a track's progress.
func (s *Store) UnmarkStreaming(catalogID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streaming, catalogID)
}

// IsStreaming reports whether a live stream owns the track's progress.
func (s *Store) IsStreaming(catalogID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.streaming[catalogID]
	return ok
}

// Settings returns the cached server settings, if any have been fetched.
func (s *Store) Settings() (api.Settings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.hasSettings
}

// SetSettings replaces the cached server settings.
func (s *Store) SetSettings(settings api.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.hasSettings = true
}

// MaxConcurrent returns the effective concurrency bound from the settings
// cache, or fallback when no settings have been fetched or the setting is
// unset.
func (s *Store) MaxConcurrent(fallback int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hasSettings && s.settings.MaxConcurrentDownloads > 0 {
		return s.settings.MaxConcurrentDownloads
	}
	return fallback
}

// Page returns the completed-history cursor.
func (s *Store) Page() CompletedPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// BeginPageFetch marks the cursor loading. It returns false when a fetch
// is already in flight or there is nothing more to fetch.
func (s *Store) BeginPageFetch() (offset, limit int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page.Loading {
		return 0, 0, false
	}
	if s.page.Offset > 0 && !s.page.HasMore {
		return 0, 0, false
	}
	s.page.Loading = true
	return s.page.Offset, s.page.Limit, true
}

// FinishPageFetch appends a fetched completed page and advances the
// cursor.
func (s *Store) FinishPageFetch(items []api.QueueTrack, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, qt := range items {
		if indexByCatalog(s.completed, qt.ID) >= 0 {
			continue
		}
		s.completed = append(s.completed, trackFromServer(qt, StatusCompleted))
	}
	s.page.Loading = false
	s.page.Offset = len(s.completed)
	s.page.Total = total
	s.page.HasMore = total > len(s.completed)
}

// AbortPageFetch clears the loading flag without advancing the cursor.
func (s *Store) AbortPageFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.Loading = false
}

// Accessors return defensive copies.

func (s *Store) Queued() []Track      { return s.cloneList(&s.queued) }
func (s *Store) Downloading() []Track { return s.cloneList(&s.downloading) }
func (s *Store) Completed() []Track   { return s.cloneList(&s.completed) }
func (s *Store) Failed() []Track      { return s.cloneList(&s.failed) }

func (s *Store) cloneList(list *[]Track) []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(*list) == 0 {
		return nil
	}
	dup := make([]Track, len(*list))
	copy(dup, *list)
	return dup
}

// Counts returns the sizes of all four lists in one lock acquisition.
func (s *Store) Counts() (queued, downloading, completed, failed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queued), len(s.downloading), len(s.completed), len(s.failed)
}

// DownloadingCount returns the number of tracks currently downloading.
func (s *Store) DownloadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.downloading)
}

func indexByID(list []Track, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func indexByCatalog(list []Track, catalogID string) int {
	for i := range list {
		if list[i].CatalogID == catalogID {
			return i
		}
	}
	return -1
}
