// Package gamedetect polls the process table to decide whether either
// game installation is currently running. The engine refuses to mutate
// links while a game holds its files open.
package gamedetect

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// GameEvent signals a launch or close transition.
type GameEvent struct {
	Game    types.Game
	Running bool
}

type processInfo struct {
	pid  int32
	name string
	exe  string
}

// processLister abstracts process-table enumeration for testing.
type processLister interface {
	list() ([]processInfo, error)
}

// Detector polls the process table on its own interval, independent of
// the watcher's debounce window.
type Detector struct {
	lister   processLister
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	running map[types.Game]bool

	events    chan GameEvent
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a detector backed by the real process table.
func New(interval time.Duration) *Detector {
	return newWithLister(gopsutilLister{}, interval)
}

func newWithLister(lister processLister, interval time.Duration) *Detector {
	return &Detector{
		lister:   lister,
		interval: interval,
		logger:   logging.GetLogger("gamedetect"),
		running:  make(map[types.Game]bool),
		events:   make(chan GameEvent, 8),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the poll loop. An initial scan runs immediately so
// IsRunning is meaningful right away. Repeated calls are no-ops: the
// session and the serve loop may both ask for the detector.
func (d *Detector) Start() {
	d.startOnce.Do(func() {
		d.scan()
		go d.run()
	})
}

// Stop ends the poll loop and waits for it to exit.
func (d *Detector) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		<-d.done
	})
}

// Events returns launch/close transitions. Feeds the on_game_launch
// trigger.
func (d *Detector) Events() <-chan GameEvent {
	return d.events
}

// IsRunning reports the last-known state for a game.
func (d *Detector) IsRunning(g types.Game) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running[g]
}

// AnyRunning returns the first game found running, if any.
func (d *Detector) AnyRunning() (types.Game, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, g := range []types.Game{types.GameStable, types.GameLazer} {
		if d.running[g] {
			return g, true
		}
	}
	return "", false
}

func (d *Detector) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.scan()
		case <-d.stop:
			return
		}
	}
}

// scan refreshes the running map. Transient enumeration failures keep
// the last-known values rather than erroring the whole engine.
func (d *Detector) scan() {
	procs, err := d.lister.list()
	if err != nil {
		d.logger.Warn().Err(err).Msg("Process enumeration failed, keeping last-known state")
		return
	}

	current := make(map[types.Game]bool, 2)
	for _, p := range procs {
		if game, ok := classify(p); ok {
			current[game] = true
		}
	}

	d.mu.Lock()
	var transitions []GameEvent
	for _, g := range []types.Game{types.GameStable, types.GameLazer} {
		if current[g] != d.running[g] {
			transitions = append(transitions, GameEvent{Game: g, Running: current[g]})
		}
	}
	d.running = current
	d.mu.Unlock()

	for _, ev := range transitions {
		d.logger.Info().Str("game", string(ev.Game)).Bool("running", ev.Running).
			Msg("Game presence changed")
		select {
		case d.events <- ev:
		default:
			d.logger.Warn().Str("game", string(ev.Game)).Msg("Dropping game event, consumer is behind")
		}
	}
}

// classify decides which installation a process belongs to. Both games
// ship an osu! executable, so lazer is disambiguated by markers in the
// executable path.
func classify(p processInfo) (types.Game, bool) {
	name := strings.ToLower(p.name)
	exe := strings.ToLower(p.exe)

	switch name {
	case "osu!", "osu!.exe", "osu", "osu.exe", "osu!lazer", "osu!lazer.exe", "osulazer", "osulazer.exe":
	case "dotnet", "dotnet.exe":
		// lazer can run under the shared dotnet host
		if strings.Contains(exe, "osu") {
			return types.GameLazer, true
		}
		return "", false
	default:
		return "", false
	}

	if strings.Contains(exe, "lazer") ||
		strings.Contains(exe, "appimage") ||
		(strings.Contains(exe, ".local") && strings.Contains(exe, "osu")) {
		return types.GameLazer, true
	}
	return types.GameStable, true
}
