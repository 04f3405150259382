// Package engine orchestrates unified storage: it owns the
// configuration and the manifest, drives the link operator, gates every
// mutation on game presence and exposes the operations the CLI and UI
// layers call. A single mutex serializes all manifest writers so
// watcher-driven, manual and migration paths can never interleave.
package engine

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/unisync/pkg/config"
	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/gamedetect"
	"github.com/arthur-debert/unisync/pkg/link"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/paths"
	"github.com/arthur-debert/unisync/pkg/types"
)

// GameDetector is the presence detection contract the engine gates on.
// Satisfied by gamedetect.Detector.
type GameDetector interface {
	Start()
	Stop()
	IsRunning(g types.Game) bool
	AnyRunning() (types.Game, bool)
	Events() <-chan gamedetect.GameEvent
}

// Options wires an engine's collaborators. FS, Paths and Detector are
// required; Importer may be nil when no lazer import pipeline is
// attached.
type Options struct {
	FS       types.FS
	Paths    paths.Paths
	Installs paths.Installs
	Detector GameDetector
	Importer types.LazerImporter
}

// Engine is the unified storage orchestrator.
type Engine struct {
	fs       types.FS
	pths     paths.Paths
	installs paths.Installs
	detector GameDetector
	importer types.LazerImporter
	logger   zerolog.Logger

	events chan types.EngineEvent

	mu          sync.Mutex
	cfg         config.UnifiedConfig
	store       manifest.Store
	op          *link.Operator
	initialized bool
	migrating   bool
	poisoned    error
}

// New creates an engine. Initialize must be called before any other
// operation.
func New(opts Options) *Engine {
	return &Engine{
		fs:       opts.FS,
		pths:     opts.Paths,
		installs: opts.Installs,
		detector: opts.Detector,
		importer: opts.Importer,
		logger:   logging.GetLogger("engine"),
		events:   make(chan types.EngineEvent, 32),
	}
}

// Events returns the engine's outbound event channel. Delivery is
// best-effort; a full channel drops the event with a warning.
func (e *Engine) Events() <-chan types.EngineEvent {
	return e.events
}

// Initialize validates the configuration, loads the manifest and probes
// link capability against the mode's target root. Configuration
// problems fail here, at startup, never silently at runtime.
func (e *Engine) Initialize(cfg config.UnifiedConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.migrating {
		return errors.New(errors.ErrMigrationActive, "a migration is in progress")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	var store manifest.Store
	if cfg.TrackManifest {
		st, err := manifest.Load(e.fs, e.pths.ManifestPath())
		if err != nil {
			return err
		}
		store = st
	} else {
		e.logger.Warn().Msg("Manifest tracking is disabled; links will be created but repair and rollback will not work")
		store = manifest.NewNoop()
	}

	capability := types.CapabilityNone
	if cfg.Mode.Enabled() {
		if cfg.Mode == types.ModeTrueUnified {
			if err := e.fs.MkdirAll(cfg.SharedPath, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrConfigValid, "shared_path %s is not writable", cfg.SharedPath)
			}
		}
		probeDir := e.probeTarget(cfg)
		capability = link.Probe(e.fs, probeDir)
		e.logger.Info().Str("capability", string(capability)).Str("dir", probeDir).Msg("Probed link capability")
	}

	e.cfg = cfg
	e.store = store
	e.op = link.NewOperator(e.fs, capability, link.Options{
		PreferJunctions: cfg.UseJunctions,
		CopyFallback:    true,
	})
	e.initialized = true
	e.poisoned = nil
	return nil
}

// Reconfigure re-validates and swaps the configuration, re-probing
// capability. Refused while a migration is running.
func (e *Engine) Reconfigure(cfg config.UnifiedConfig) error {
	return e.Initialize(cfg)
}

// probeTarget picks the directory whose link permissions actually
// matter for the configured mode.
func (e *Engine) probeTarget(cfg config.UnifiedConfig) string {
	switch cfg.Mode {
	case types.ModeTrueUnified:
		return cfg.SharedPath
	case types.ModeLazerMaster:
		return e.installs.StableRoot
	default:
		return e.installs.StableRoot
	}
}

// checkReadyLocked guards every mutating operation: the engine must be
// initialized, not poisoned by a manifest fault and not migrating.
func (e *Engine) checkReadyLocked() error {
	if !e.initialized {
		return errors.New(errors.ErrInternal, "engine is not initialized")
	}
	if e.poisoned != nil {
		return errors.Wrap(e.poisoned, errors.ErrManifest,
			"refusing to operate on a possibly-inconsistent manifest")
	}
	if e.migrating {
		return errors.New(errors.ErrMigrationActive, "a migration is in progress")
	}
	return nil
}

// gateForRunningGame refuses mutating work while either game is
// running. The refusal is surfaced, never silently retried.
func (e *Engine) gateForRunningGame() error {
	if game, running := e.detector.AnyRunning(); running {
		e.emit(types.EngineEvent{Kind: types.EventGameRunningBlocked, Game: game})
		return errors.Newf(errors.ErrGameRunning, "%s is running, refusing to modify links", game).
			WithDetail("game", string(game))
	}
	return nil
}

// noteManifestFault poisons the engine on persistence failures: all
// further mutating commands are refused until re-initialization.
func (e *Engine) noteManifestFault(err error) {
	if errors.IsErrorCode(err, errors.ErrManifest) && e.poisoned == nil {
		e.poisoned = err
		e.logger.Error().Err(err).Msg("Manifest persistence failed; engine disabled until reinitialized")
	}
}

func (e *Engine) emit(ev types.EngineEvent) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn().Str("kind", string(ev.Kind)).Msg("Dropping engine event, consumer is behind")
	}
}

// Entries returns a snapshot of the manifest for dashboard reads. The
// snapshot is the latest committed state; it never blocks writers for
// long.
func (e *Engine) Entries() []manifest.LinkedResource {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil
	}
	return e.store.All()
}

// Capability reports the probed link capability of this session.
func (e *Engine) Capability() types.LinkCapability {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.op == nil {
		return types.CapabilityNone
	}
	return e.op.Capability()
}

// Close releases the outbound event channel. Serve must have returned.
func (e *Engine) Close() {
	close(e.events)
}
