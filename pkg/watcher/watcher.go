// Package watcher observes source directories and turns raw filesystem
// noise into debounced, filtered notifications. Delivery is best-effort:
// a consumer that falls permanently behind loses notifications with a
// warning instead of blocking the watcher.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// Watcher observes one or more root directories until stopped.
type Watcher struct {
	fsn      *fsnotify.Watcher
	out      chan Event
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	logger   zerolog.Logger
}

// New starts watching the given roots. interval is the debounce quiet
// window; buffer bounds the outbound channel.
func New(roots []string, interval time.Duration, buffer int) (*Watcher, error) {
	fsn, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrWatcher, "cannot create filesystem watcher")
	}

	w := &Watcher{
		fsn:      fsn,
		out:      make(chan Event, buffer),
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logging.GetLogger("watcher"),
	}

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			_ = fsn.Close()
			return nil, err
		}
		w.logger.Debug().Str("root", root).Msg("Watching directory")
	}

	go w.run()
	return w, nil
}

// addRecursive watches root and every directory already under it.
// fsnotify reports only the immediate children of a watched directory,
// so existing beatmap folders must each carry their own watch.
func (w *Watcher) addRecursive(root string) error {
	if err := w.fsn.Add(root); err != nil {
		return errors.Wrapf(err, errors.ErrWatcher, "cannot watch %s", root)
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == root {
			return nil
		}
		if isTransient(path) {
			return filepath.SkipDir
		}
		if err := w.fsn.Add(path); err != nil {
			return errors.Wrapf(err, errors.ErrWatcher, "cannot watch %s", path)
		}
		return nil
	})
}

// Events returns the notification channel. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Stop tears the watcher down and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.out)
	defer func() { _ = w.fsn.Close() }()

	co := newCoalescer(w.interval)
	tick := w.interval / 2
	if tick < 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-w.fsn.Events:
			if !ok {
				return
			}
			w.handleRaw(co, ev)

		case err, ok := <-w.fsn.Errors:
			if !ok {
				return
			}
			// Backend faults are non-fatal; the watcher keeps going.
			w.logger.Warn().Err(err).Msg("Watcher backend error")

		case now := <-ticker.C:
			for _, out := range co.Flush(now) {
				w.deliver(out)
			}

		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleRaw(co *coalescer, ev fsnotify.Event) {
	if isTransient(ev.Name) {
		return
	}

	kind, ok := mapOp(ev.Op)
	if !ok {
		return
	}

	// New subdirectories (beatmap folders land as whole directories,
	// sometimes with children already inside) are added to the watch so
	// changes inside them are seen too.
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Debug().Err(err).Str("path", ev.Name).Msg("Cannot watch new directory")
			}
		}
	}

	co.Add(ev.Name, kind, time.Now())
}

func (w *Watcher) deliver(ev Event) {
	select {
	case w.out <- ev:
	default:
		w.logger.Warn().Str("path", ev.Path).Str("kind", string(ev.Kind)).
			Msg("Dropping notification, consumer is falling behind")
	}
}

func mapOp(op fsnotify.Op) (types.EventKind, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return types.EventCreated, true
	case op.Has(fsnotify.Remove):
		return types.EventDeleted, true
	case op.Has(fsnotify.Rename):
		return types.EventRenamed, true
	case op.Has(fsnotify.Write):
		return types.EventModified, true
	}
	return "", false
}
