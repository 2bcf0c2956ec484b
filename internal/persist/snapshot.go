package persist

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/riptide/internal/db"

	"github.com/llehouerou/riptide/internal/api"
	"github.com/llehouerou/riptide/internal/queue"
)

func loadSnapshot(db *sql.DB) (*Snapshot, error) {
	tracks, err := loadTracks(db)
	if err != nil {
		return nil, err
	}
	settings, err := loadSettings(db)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Tracks: tracks, Settings: settings}, nil
}

func loadTracks(db *sql.DB) ([]queue.Track, error) {
	rows, err := db.Query(`
		SELECT track_id, catalog_id, title, artist, album, cover, track_number,
		       status, progress, error, filename,
		       added_at, started_at, completed_at, failed_at
		FROM cached_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []queue.Track
	for rows.Next() {
		var t queue.Track
		var artist, album, cover, trackErr, filename sql.NullString
		var trackNumber sql.NullInt64
		var addedAt, startedAt, completedAt, failedAt int64

		err := rows.Scan(&t.ID, &t.CatalogID, &t.Title, &artist, &album, &cover, &trackNumber,
			&t.Status, &t.Progress, &trackErr, &filename,
			&addedAt, &startedAt, &completedAt, &failedAt)
		if err != nil {
			return nil, err
		}

		t.Artist = dbutil.NullStringValue(artist)
		t.Album = dbutil.NullStringValue(album)
		t.Cover = dbutil.NullStringValue(cover)
		t.TrackNumber = int(trackNumber.Int64)
		t.Error = dbutil.NullStringValue(trackErr)
		t.Filename = dbutil.NullStringValue(filename)
		t.AddedAt = fromMillis(addedAt)
		t.StartedAt = fromMillis(startedAt)
		t.CompletedAt = fromMillis(completedAt)
		t.FailedAt = fromMillis(failedAt)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func loadSettings(db *sql.DB) (*api.Settings, error) {
	var s api.Settings
	var syncSchedule, quality, template sql.NullString
	row := db.QueryRow(`
		SELECT max_concurrent_downloads, auto_process, is_processing,
		       sync_schedule, quality, organization_template,
		       enrich_metadata, secondary_tagger, embed_lyrics, version
		FROM cached_settings WHERE id = 1
	`)
	err := row.Scan(&s.MaxConcurrentDownloads, &s.AutoProcess, &s.IsProcessing,
		&syncSchedule, &quality, &template,
		&s.EnrichMetadata, &s.SecondaryTagger, &s.EmbedLyrics, &s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.SyncSchedule = dbutil.NullStringValue(syncSchedule)
	s.Quality = dbutil.NullStringValue(quality)
	s.OrganizationTemplate = dbutil.NullStringValue(template)
	return &s, nil
}

func saveSnapshot(db *sql.DB, snapshot Snapshot) error {
	return dbutil.WithTx(db, func(tx *sql.Tx) error {
		// Replace the cached track list wholesale
		_, err := tx.Exec(`DELETE FROM cached_tracks`)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO cached_tracks (
				position, track_id, catalog_id, title, artist, album, cover, track_number,
				status, progress, error, filename,
				added_at, started_at, completed_at, failed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range snapshot.Tracks {
			_, err = stmt.Exec(i, t.ID, t.CatalogID, t.Title,
				dbutil.NullString(t.Artist), dbutil.NullString(t.Album),
				dbutil.NullString(t.Cover), t.TrackNumber,
				t.Status, t.Progress,
				dbutil.NullString(t.Error), dbutil.NullString(t.Filename),
				toMillis(t.AddedAt), toMillis(t.StartedAt),
				toMillis(t.CompletedAt), toMillis(t.FailedAt))
			if err != nil {
				return err
			}
		}

		if snapshot.Settings == nil {
			return nil
		}
		s := snapshot.Settings
		_, err = tx.Exec(`
			INSERT INTO cached_settings (
				id, max_concurrent_downloads, auto_process, is_processing,
				sync_schedule, quality, organization_template,
				enrich_metadata, secondary_tagger, embed_lyrics, version
			) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				max_concurrent_downloads = excluded.max_concurrent_downloads,
				auto_process = excluded.auto_process,
				is_processing = excluded.is_processing,
				sync_schedule = excluded.sync_schedule,
				quality = excluded.quality,
				organization_template = excluded.organization_template,
				enrich_metadata = excluded.enrich_metadata,
				secondary_tagger = excluded.secondary_tagger,
				embed_lyrics = excluded.embed_lyrics,
				version = excluded.version
		`, s.MaxConcurrentDownloads, s.AutoProcess, s.IsProcessing,
			dbutil.NullString(s.SyncSchedule), dbutil.NullString(s.Quality),
			dbutil.NullString(s.OrganizationTemplate),
			s.EnrichMetadata, s.SecondaryTagger, s.EmbedLyrics, s.Version)
		return err
	})
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
