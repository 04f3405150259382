package engine

import (
	"context"

	"github.com/arthur-debert/unisync/pkg/types"
	"github.com/arthur-debert/unisync/pkg/watcher"
)

// Serve runs the engine's background units until ctx is cancelled: the
// game-presence poll loop, and, when the file_watcher trigger is
// enabled, a debounced watcher over the authoritative directories. Both
// are torn down cleanly on return so shutdown leaves no dangling
// goroutines.
func (e *Engine) Serve(ctx context.Context) error {
	e.mu.Lock()
	cfg := e.cfg
	initialized := e.initialized
	e.mu.Unlock()

	if !initialized {
		return nil
	}

	e.detector.Start()
	defer e.detector.Stop()

	var watchEvents <-chan watcher.Event
	if cfg.Triggers.FileWatcher && cfg.Mode.Enabled() {
		roots := e.watchRoots()
		if len(roots) > 0 {
			w, err := watcher.New(roots, cfg.WatcherInterval(), 64)
			if err != nil {
				// Watcher faults are non-fatal; the engine keeps
				// serving manual and game-launch triggers.
				e.logger.Warn().Err(err).Msg("Watcher disabled")
			} else {
				defer w.Stop()
				watchEvents = w.Events()
			}
		}
	}

	games := e.detector.Events()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			if _, err := e.HandleWatchEvent(ev); err != nil {
				e.logger.Warn().Err(err).Str("path", ev.Path).Msg("Watcher-triggered sync failed")
			}

		case gev, ok := <-games:
			if !ok {
				games = nil
				continue
			}
			if !cfg.Triggers.OnGameLaunch {
				continue
			}
			// Launch transitions are gated away while the game holds
			// its files; the close transition is when the sync lands.
			if _, err := e.SyncNow(types.TriggerGameLaunch); err != nil {
				e.logger.Debug().Err(err).Str("game", string(gev.Game)).Msg("Game-triggered sync refused")
			}
		}
	}
}
