package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/llehouerou/riptide/internal/api"
	"github.com/llehouerou/riptide/internal/config"
	"github.com/llehouerou/riptide/internal/engine"
	"github.com/llehouerou/riptide/internal/notify"
	"github.com/llehouerou/riptide/internal/persist"
	"github.com/llehouerou/riptide/internal/queue"
	"github.com/llehouerou/riptide/internal/ui/queueview"
)

const cacheSaveInterval = 5 * time.Second

// staticAuth supplies the configured API key. After the server rejects it
// once, requests keep carrying it but the rejection has been logged; the
// user must fix the config and restart.
type staticAuth struct {
	key      string
	log      *log.Logger
	rejected atomic.Bool
}

func (a *staticAuth) APIKey() string { return a.key }

func (a *staticAuth) Invalidate() {
	if a.rejected.CompareAndSwap(false, true) {
		a.log.Error("server rejected the API key, check [server] apikey in config.toml")
	}
}

func newLogger(logFile string) (*log.Logger, func()) {
	if logFile == "" {
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(io.Discard), func() {}
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Level:           log.DebugLevel,
	})
	return logger, func() { f.Close() }
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasServerConfig() {
		return fmt.Errorf("no server configured: set [server] url and apikey in ~/.config/riptide/config.toml")
	}
	dlCfg := cfg.GetDownloadConfig()

	logger, closeLog := newLogger(cfg.LogFile)
	defer closeLog()

	store := queue.NewStore(logger)
	store.SetPageLimit(dlCfg.PageSize)

	cache, err := persist.Open()
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	if snapshot, err := cache.Load(); err != nil {
		logger.Warn("cache load failed, starting empty", "err", err)
	} else {
		store.Restore(snapshot.Tracks, snapshot.Settings)
	}

	auth := &staticAuth{key: cfg.Server.APIKey, log: logger}
	client := api.NewClient(cfg.Server.URL, auth)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier, err := notify.New()
	if err != nil {
		logger.Warn("desktop notifications unavailable", "err", err)
	}

	var program *tea.Program
	onNotice := func(n engine.Notice) {
		program.Send(queueview.NoticeMsg(n))
		if notifier == nil {
			return
		}
		switch n.Kind {
		case engine.NoticeDownloadDone:
			_, _ = notifier.Notify(notify.DownloadDone(n.Artist, n.Title))
		case engine.NoticeDownloadFailed:
			_, _ = notifier.Notify(notify.DownloadFailed(n.Artist, n.Title, n.Message))
		}
	}

	eng := engine.New(store, client, logger, onNotice)
	eng.SetDefaultQuality(api.Quality(dlCfg.Quality))
	eng.SetFallbackConcurrency(dlCfg.MaxConcurrent)
	eng.SetVisible(true)

	// The program must exist before any engine goroutine can emit a notice;
	// onNotice sends into it.
	program = tea.NewProgram(queueview.New(ctx, eng, store), tea.WithAltScreen())

	// Settle cached downloading tracks against the server, then reattach
	// their progress streams, before the poll loop takes over.
	go func() {
		startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
		defer startCancel()
		if err := eng.RefreshSettings(startCtx); err != nil {
			logger.Warn("initial settings fetch failed", "err", err)
		}
		if err := eng.Reconcile(startCtx); err != nil {
			logger.Warn("startup reconciliation failed", "err", err)
		}
		eng.ResumeDownloading(ctx)
		eng.StartPolling(ctx)
	}()

	// Periodic cache writes; the manager debounces the actual disk writes.
	go func() {
		ticker := time.NewTicker(cacheSaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				saveCache(cache, store)
			}
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}

	cancel()
	eng.Stop()
	eng.Wait()
	saveCache(cache, store)
	return nil
}

func saveCache(cache *persist.Manager, store *queue.Store) {
	snapshot := persist.Snapshot{Tracks: store.AllTracks()}
	if settings, ok := store.Settings(); ok {
		snapshot.Settings = &settings
	}
	cache.Save(snapshot)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
