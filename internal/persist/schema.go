package persist

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS cached_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			catalog_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			cover TEXT,
			track_number INTEGER,
			status TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			filename TEXT,
			added_at INTEGER NOT NULL,
			started_at INTEGER NOT NULL DEFAULT 0,
			completed_at INTEGER NOT NULL DEFAULT 0,
			failed_at INTEGER NOT NULL DEFAULT 0,
			UNIQUE(position)
		);

		CREATE INDEX IF NOT EXISTS idx_cached_tracks_position ON cached_tracks(position);

		CREATE TABLE IF NOT EXISTS cached_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			max_concurrent_downloads INTEGER NOT NULL,
			auto_process INTEGER NOT NULL,
			is_processing INTEGER NOT NULL,
			sync_schedule TEXT,
			quality TEXT,
			organization_template TEXT,
			enrich_metadata INTEGER NOT NULL,
			secondary_tagger INTEGER NOT NULL,
			embed_lyrics INTEGER NOT NULL,
			version INTEGER NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
