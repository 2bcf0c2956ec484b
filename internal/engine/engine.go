// Package engine drives the download queue: it polls the server for
// canonical snapshots, dispatches downloads within the concurrency bound,
// watches per-track progress streams, and reconciles local state after a
// connectivity gap.
package engine

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/riptide/internal/api"
	"github.com/llehouerou/riptide/internal/queue"
)

const (
	fastPollInterval = time.Second
	slowPollInterval = 10 * time.Second

	// defaultStreamTimeout bounds the whole watch of one track, reconnects
	// included.
	defaultStreamTimeout    = 5 * time.Minute
	defaultStreamRetryDelay = 2 * time.Second
	startAttempts           = 5  // stream attempts on the download-start path
	resumeAttempts          = 10 // stream attempts when resuming at startup
	defaultConcurrent       = 3
)

// NoticeKind classifies user-facing notices emitted by the engine.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeQualityFallback
	NoticeSettingsConflict
	NoticeDownloadDone
	NoticeDownloadFailed
)

// Notice is a user-facing event: a status-line toast, a desktop
// notification, or both. Artist and Title are set for per-track notices.
type Notice struct {
	Kind    NoticeKind
	Message string
	Artist  string
	Title   string
}

// Engine owns the sync loop and all per-track stream watchers. All state
// lives in the Store; the engine only moves it through transitions.
type Engine struct {
	store  *queue.Store
	client *api.Client
	log    *log.Logger
	notify func(Notice)

	defaultQuality api.Quality
	// fallbackConcurrent bounds dispatch when the settings cache has no
	// server value yet.
	fallbackConcurrent int

	streamTimeout    time.Duration
	streamRetryDelay time.Duration

	mu          sync.Mutex
	driveCancel context.CancelFunc            // nil when drive mode is off
	watchers    map[string]context.CancelFunc // by local track id

	kick    chan struct{}
	visible atomic.Bool
	wg      sync.WaitGroup
}

// New creates an engine. notify may be nil; a nil logger discards output.
func New(store *queue.Store, client *api.Client, logger *log.Logger, notify func(Notice)) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		store:              store,
		client:             client,
		log:                logger,
		notify:             notify,
		defaultQuality:     api.QualityHiRes,
		fallbackConcurrent: defaultConcurrent,
		streamTimeout:      defaultStreamTimeout,
		streamRetryDelay:   defaultStreamRetryDelay,
		watchers:           make(map[string]context.CancelFunc),
		kick:               make(chan struct{}, 1),
	}
}

// SetFallbackConcurrency overrides the concurrency bound used when the
// settings cache has none.
func (e *Engine) SetFallbackConcurrency(n int) {
	if n > 0 {
		e.fallbackConcurrent = n
	}
}

// SetDefaultQuality overrides the quality used when the settings cache has
// none.
func (e *Engine) SetDefaultQuality(q api.Quality) {
	if q != "" {
		e.defaultQuality = q
	}
}

// SetVisible switches the poll cadence: fast while the queue view is on
// screen, slow as a background safety net.
func (e *Engine) SetVisible(visible bool) {
	e.visible.Store(visible)
}

// StartPolling launches the background snapshot poller. It returns
// immediately and keeps running until ctx is cancelled; Stop does not
// affect it, so the view keeps reflecting server-driven processing even
// when this client is not dispatching.
func (e *Engine) StartPolling(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			e.refresh(ctx)
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.pollInterval()):
			}
		}
	}()
}

func (e *Engine) pollInterval() time.Duration {
	if e.visible.Load() {
		return fastPollInterval
	}
	return slowPollInterval
}

// refresh pulls one canonical snapshot and applies it to the store. The
// requested window covers every history page already loaded so a poll never
// discards them or regresses the page cursor.
func (e *Engine) refresh(ctx context.Context) {
	page := e.store.Page()
	limit := page.Limit
	if page.Offset > limit {
		limit = page.Offset
	}
	snap, err := e.client.FetchQueue(ctx, 0, limit)
	if err != nil {
		if ctx.Err() == nil {
			e.log.Warn("queue poll failed", "err", err)
		}
		return
	}
	e.store.ApplyServerSnapshot(snap)
}

// Start enters drive mode: dispatch queued tracks while the number of
// downloads stays under the concurrency bound. Idempotent.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.driveCancel != nil {
		e.mu.Unlock()
		return
	}
	driveCtx, cancel := context.WithCancel(ctx)
	e.driveCancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.drive(driveCtx)
}

// Stop leaves drive mode and cancels every open stream watcher. The
// background poller keeps running. Idempotent. In-flight HTTP work is
// aborted best-effort: a track whose completion frame was already applied
// stays Completed.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.driveCancel != nil {
		e.driveCancel()
		e.driveCancel = nil
	}
	for id, cancel := range e.watchers {
		cancel()
		delete(e.watchers, id)
	}
	e.mu.Unlock()
}

// Wait blocks until all engine goroutines have exited. Intended for
// shutdown after the contexts passed to StartPolling/Start are cancelled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Driving reports whether drive mode is on.
func (e *Engine) Driving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.driveCancel != nil
}

func (e *Engine) drive(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		e.dispatch(ctx)

		queued, downloading, _, _ := e.store.Counts()
		if queued == 0 && downloading == 0 {
			// Nothing left to drive; stop instead of busy-waiting.
			e.mu.Lock()
			if e.driveCancel != nil {
				e.driveCancel()
				e.driveCancel = nil
			}
			e.mu.Unlock()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-e.kick:
		case <-ticker.C:
		}
	}
}

// dispatch starts downloads FIFO while under the concurrency bound.
func (e *Engine) dispatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	for {
		maxConcurrent := e.store.MaxConcurrent(e.fallbackConcurrent)
		if e.store.DownloadingCount() >= maxConcurrent {
			return
		}
		track, ok := e.store.StartNext()
		if !ok {
			return
		}
		e.log.Info("starting download", "track", track.CatalogID, "title", track.Title)
		e.startWatcher(ctx, track, startAttempts, false)
	}
}

// ResumeDownloading reopens progress streams for tracks still downloading
// after a cold-start reconciliation, with the larger reconnect budget.
func (e *Engine) ResumeDownloading(ctx context.Context) {
	for _, track := range e.store.Downloading() {
		e.mu.Lock()
		_, watched := e.watchers[track.ID]
		e.mu.Unlock()
		if watched {
			continue
		}
		e.log.Info("resuming progress stream", "track", track.CatalogID)
		e.startWatcher(ctx, track, resumeAttempts, true)
	}
}

func (e *Engine) startWatcher(ctx context.Context, track queue.Track, attempts int, resume bool) {
	watchCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.watchers[track.ID] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			cancel()
			e.mu.Lock()
			delete(e.watchers, track.ID)
			e.mu.Unlock()
			e.kickDispatch()
		}()
		e.watchTrack(watchCtx, track, attempts, resume)
	}()
}

// kickDispatch nudges the drive loop without waiting for its tick.
func (e *Engine) kickDispatch() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

func (e *Engine) sendNotice(kind NoticeKind, message string) {
	if e.notify != nil {
		e.notify(Notice{Kind: kind, Message: message})
	}
}

func (e *Engine) sendTrackNotice(kind NoticeKind, track queue.Track, message string) {
	if e.notify != nil {
		e.notify(Notice{Kind: kind, Message: message, Artist: track.Artist, Title: track.Title})
	}
}
