// Package persist caches the queue mirror in a local SQLite database so a
// restart can show the last known state immediately, before the first
// server reconciliation lands.
package persist

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/riptide/internal/api"
	"github.com/llehouerou/riptide/internal/queue"
)

const (
	appName      = "riptide"
	dbFileName   = "riptide.db"
	saveDebounce = 500 * time.Millisecond
)

// Snapshot is the persisted mirror: all cached tracks plus the settings
// cache, if one was fetched.
type Snapshot struct {
	Tracks   []queue.Track
	Settings *api.Settings
}

type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *Snapshot
}

// Open creates or opens the cache database under the XDG data directory.
func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens the cache database at an explicit path.
func OpenAt(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	// Flush pending state
	if pending != nil {
		_ = saveSnapshot(m.db, *pending)
	}

	return m.db.Close()
}

// Load reads the cached snapshot. An empty cache yields an empty snapshot,
// not an error.
func (m *Manager) Load() (*Snapshot, error) {
	return loadSnapshot(m.db)
}

// Save schedules a debounced write of the snapshot. Rapid successive calls
// collapse into one write carrying the latest snapshot.
func (m *Manager) Save(snapshot Snapshot) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &snapshot

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = saveSnapshot(m.db, *pending)
		}
	})
}
