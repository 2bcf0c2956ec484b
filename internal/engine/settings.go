package engine

import (
	"context"
	"fmt"

	"github.com/llehouerou/riptide/internal/api"
)

// RefreshSettings fetches the server settings into the cache.
func (e *Engine) RefreshSettings(ctx context.Context) error {
	settings, err := e.client.FetchSettings(ctx)
	if err != nil {
		return fmt.Errorf("fetch settings: %w", err)
	}
	e.store.SetSettings(*settings)
	return nil
}

// UpdateSettings writes a partial settings update carrying the cached
// version. On a version conflict the server's settings are adopted, a
// notice is emitted, and the caller can reapply its change on top. The
// returned result reflects the settings now cached either way.
func (e *Engine) UpdateSettings(ctx context.Context, update api.SettingsUpdate) (api.SettingsResult, error) {
	if cached, ok := e.store.Settings(); ok {
		update.Version = cached.Version
	}

	result, err := e.client.UpdateSettings(ctx, update)
	if err != nil {
		return api.SettingsResult{}, err
	}

	e.store.SetSettings(result.Settings)
	if result.Conflict {
		e.log.Warn("settings conflict, adopted server version",
			"version", result.Settings.Version)
		e.sendNotice(NoticeSettingsConflict, "settings were changed elsewhere, showing latest")
	}
	return result, nil
}
