// Package api provides a client for the download server HTTP API.
package api

// QueueTrack represents one track as reported by the server queue.
type QueueTrack struct {
	ID          string `json:"id"` // catalog track id
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Cover       string `json:"cover"`
	TrackNumber int    `json:"track_number"`
	Progress    int    `json:"progress"`
	Error       string `json:"error,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// QueueSnapshot is the canonical server view of the queue at one instant.
type QueueSnapshot struct {
	Queued         []QueueTrack `json:"queued"`
	Active         []QueueTrack `json:"active"`
	Completed      []QueueTrack `json:"completed"`
	Failed         []QueueTrack `json:"failed"`
	CompletedTotal int          `json:"completed_total"`
	Settings       *Settings    `json:"settings,omitempty"`
}

// TrackDescriptor is the payload for enqueueing one track.
type TrackDescriptor struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Cover       string `json:"cover,omitempty"`
	TrackNumber int    `json:"track_number,omitempty"`
}

// AddResult reports how many tracks the server accepted.
type AddResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// ClearResult reports how many entries a bulk clear removed.
type ClearResult struct {
	Cleared int `json:"cleared"`
}

// DownloadRequest asks the server to start one download.
type DownloadRequest struct {
	TrackID string  `json:"track_id"`
	Artist  string  `json:"artist"`
	Title   string  `json:"title"`
	Quality Quality `json:"quality"`
}

// StartOutcome classifies the result of a download-start call.
type StartOutcome int

const (
	// StartedDownload means the server accepted the job and is downloading.
	StartedDownload StartOutcome = iota
	// AlreadyExists means the file is already present server-side.
	AlreadyExists
	// NotFoundAtQuality means the track is not available at the requested
	// quality (or not available at all).
	NotFoundAtQuality
)

// DownloadStartResult is the variant result of StartDownload.
type DownloadStartResult struct {
	Outcome  StartOutcome
	Filename string
	Path     string
}

// ProgressFrame is one message on the server-push progress channel.
// A frame carries a progress update, a terminal status, or both.
type ProgressFrame struct {
	Progress *int   `json:"progress,omitempty"`
	Status   string `json:"status,omitempty"` // completed, failed, not_found
	Error    string `json:"error,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Terminal frame statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusNotFound  = "not_found"
)

// StateEntry describes one track in the reconciliation snapshot.
type StateEntry struct {
	Progress int    `json:"progress"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DownloadState is the reconciliation snapshot, keyed by catalog track id.
type DownloadState struct {
	Active    map[string]StateEntry `json:"active"`
	Completed map[string]StateEntry `json:"completed"`
	Failed    map[string]StateEntry `json:"failed"`
}

// Settings holds the server-owned, versioned configuration.
type Settings struct {
	MaxConcurrentDownloads int    `json:"max_concurrent_downloads"`
	AutoProcess            bool   `json:"auto_process"`
	IsProcessing           bool   `json:"is_processing"`
	SyncSchedule           string `json:"sync_schedule"`
	Quality                string `json:"quality"`
	OrganizationTemplate   string `json:"organization_template"`
	EnrichMetadata         bool   `json:"enrich_metadata"`
	SecondaryTagger        bool   `json:"secondary_tagger"`
	EmbedLyrics            bool   `json:"embed_lyrics"`
	Version                int    `json:"version"`
}

// SettingsUpdate is a partial settings write. Nil fields are left untouched
// by the server. Version must be the version the settings were read at.
type SettingsUpdate struct {
	MaxConcurrentDownloads *int    `json:"max_concurrent_downloads,omitempty"`
	AutoProcess            *bool   `json:"auto_process,omitempty"`
	SyncSchedule           *string `json:"sync_schedule,omitempty"`
	Quality                *string `json:"quality,omitempty"`
	OrganizationTemplate   *string `json:"organization_template,omitempty"`
	EnrichMetadata         *bool   `json:"enrich_metadata,omitempty"`
	SecondaryTagger        *bool   `json:"secondary_tagger,omitempty"`
	EmbedLyrics            *bool   `json:"embed_lyrics,omitempty"`
	Version                int     `json:"version"`
}

// SettingsResult is the variant result of UpdateSettings. When Conflict is
// true the write was rejected and Settings holds the server's current
// settings, which the caller must adopt.
type SettingsResult struct {
	Conflict bool
	Settings Settings
}

// conflictResponse is the body of a 409 settings response.
type conflictResponse struct {
	Detail struct {
		CurrentSettings Settings `json:"current_settings"`
	} `json:"detail"`
}

// Quality is an encoding quality tier, highest first.
type Quality string

const (
	QualityHiRes    Quality = "HI_RES_LOSSLESS"
	QualityLossless Quality = "LOSSLESS"
	QualityHigh     Quality = "HIGH"
	QualityLow      Quality = "LOW"
)

// IsHighest returns true for the top quality tier.
func (q Quality) IsHighest() bool {
	return q == QualityHiRes
}

// NextLower returns the tier below q. The second return is false when q is
// already the lowest (or unknown) tier.
func (q Quality) NextLower() (Quality, bool) {
	switch q {
	case QualityHiRes:
		return QualityLossless, true
	case QualityLossless:
		return QualityHigh, true
	case QualityHigh:
		return QualityLow, true
	}
	return q, false
}
