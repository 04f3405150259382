package engine

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/link"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/paths"
	"github.com/arthur-debert/unisync/pkg/types"
	"github.com/arthur-debert/unisync/pkg/watcher"
)

// resourcePlan is the mode-resolved shape of one shared resource: where
// the authoritative content lives and which paths should link to it.
type resourcePlan struct {
	source string
	links  []string

	// perChild links each immediate child of source instead of the
	// folder itself. Used for beatmaps under LazerMaster, where the
	// stable Songs folder must stay a real directory.
	perChild bool

	// childRoot is the directory receiving per-child links.
	childRoot string

	// viaImport hands content to the lazer import pipeline instead of
	// creating links.
	viaImport bool
}

type syncStats struct {
	changed  bool
	created  int
	repaired int
	degraded int
}

// SyncNow diffs the authoritative side of every shared resource against
// its expected links and creates or repairs what is missing. Manual,
// watcher and game-launch triggers all land here so behavior is
// identical regardless of origin.
func (e *Engine) SyncNow(trigger types.Trigger) (types.SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncLocked(trigger, e.cfg.SharedResources)
}

// HandleWatchEvent maps a debounced filesystem event to the affected
// resource and syncs only that resource. A full rescan per event would
// not scale with large beatmap libraries.
func (e *Engine) HandleWatchEvent(ev watcher.Event) (types.SyncResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rt, ok := e.resourceForPathLocked(ev.Path)
	if !ok {
		e.logger.Debug().Str("path", ev.Path).Msg("Event path matches no shared resource")
		return types.SyncResult{Trigger: types.TriggerWatcher}, nil
	}

	e.logger.Debug().Str("path", ev.Path).Str("kind", string(ev.Kind)).
		Str("resource", string(rt)).Msg("Watch event mapped to resource")
	return e.syncLocked(types.TriggerWatcher, []types.ResourceType{rt})
}

func (e *Engine) syncLocked(trigger types.Trigger, resources []types.ResourceType) (types.SyncResult, error) {
	result := types.SyncResult{Trigger: trigger, StartedAt: time.Now()}

	if err := e.checkReadyLocked(); err != nil {
		return result, err
	}
	if !e.cfg.Mode.Enabled() {
		return result, nil
	}
	if err := e.gateForRunningGame(); err != nil {
		return result, err
	}

	var firstErr error
	for _, rt := range resources {
		stats, err := e.syncResourceLocked(rt)
		if err != nil {
			e.logger.Error().Err(err).Str("resource", string(rt)).Msg("Resource sync failed")
			if firstErr == nil {
				firstErr = err
			}
			e.noteManifestFault(err)
			if e.poisoned != nil {
				break
			}
			continue
		}
		if stats.changed {
			result.ChangedResources = append(result.ChangedResources, rt)
		}
		result.LinksCreated += stats.created
		result.LinksRepaired += stats.repaired
		result.Degraded += stats.degraded
	}

	result.Duration = time.Since(result.StartedAt)
	if firstErr == nil {
		e.emit(types.EngineEvent{Kind: types.EventSyncCompleted, Sync: result})
	}
	return result, firstErr
}

func (e *Engine) syncResourceLocked(rt types.ResourceType) (syncStats, error) {
	plan := e.planResourceLocked(rt)
	var stats syncStats

	if plan.viaImport {
		return e.syncViaImportLocked(rt, plan)
	}

	if plan.perChild {
		return e.syncPerChildLocked(rt, plan)
	}

	if e.cfg.Mode == types.ModeTrueUnified {
		if err := e.fs.MkdirAll(plan.source, 0755); err != nil {
			return stats, errors.Wrapf(err, errors.ErrDirCreate, "cannot create shared folder %s", plan.source)
		}
	} else if _, err := e.fs.Stat(plan.source); err != nil {
		// Nothing authoritative to link yet.
		return stats, nil
	}

	var linkType types.LinkType
	for _, lp := range plan.links {
		outcome, err := e.op.CreateLink(plan.source, lp)
		if err != nil {
			return stats, err
		}
		if !outcome.AlreadyLinked {
			stats.changed = true
			stats.created++
		}
		if outcome.Degraded {
			stats.degraded++
		}
		if linkType == "" || outcome.Type == types.LinkCopy {
			linkType = outcome.Type
		}
	}

	if stats.changed || e.entryMissingLocked(rt, plan.source) {
		if err := e.upsertEntryLocked(rt, plan.source, plan.links, linkType); err != nil {
			return stats, err
		}
		stats.changed = true
	}
	return stats, nil
}

// syncPerChildLocked links each immediate child directory of the
// authoritative folder into childRoot, one manifest entry per child.
func (e *Engine) syncPerChildLocked(rt types.ResourceType, plan resourcePlan) (syncStats, error) {
	var stats syncStats

	entries, err := e.fs.ReadDir(plan.source)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", plan.source)
	}

	if err := e.fs.MkdirAll(plan.childRoot, 0755); err != nil {
		return stats, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", plan.childRoot)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		childSource := filepath.Join(plan.source, entry.Name())
		childLink := filepath.Join(plan.childRoot, entry.Name())

		outcome, err := e.op.CreateLink(childSource, childLink)
		if err != nil {
			return stats, err
		}
		if outcome.AlreadyLinked {
			continue
		}
		stats.changed = true
		stats.created++
		if outcome.Degraded {
			stats.degraded++
		}
		if err := e.upsertEntryLocked(rt, childSource, []string{childLink}, outcome.Type); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// syncViaImportLocked records a pending entry for the lazer side and
// queues the content with the import pipeline. Lazer ingests through
// its own content-addressed store, so no direct link is possible.
func (e *Engine) syncViaImportLocked(rt types.ResourceType, plan resourcePlan) (syncStats, error) {
	var stats syncStats

	if _, err := e.fs.Stat(plan.source); err != nil {
		return stats, nil
	}

	if _, ok := e.store.Get(rt, plan.source); !ok {
		entry := manifest.LinkedResource{
			ResourceType: rt,
			SourcePath:   plan.source,
			Status:       types.StatusPending,
		}
		if err := e.store.Upsert(entry); err != nil {
			return stats, err
		}
		stats.changed = true
	}

	if e.importer != nil {
		if err := e.importer.QueueImport(plan.source); err != nil {
			return stats, errors.Wrapf(err, errors.ErrLinkCreation, "lazer import of %s failed", plan.source)
		}
	}
	return stats, nil
}

func (e *Engine) entryMissingLocked(rt types.ResourceType, source string) bool {
	_, ok := e.store.Get(rt, source)
	return !ok
}

func (e *Engine) upsertEntryLocked(rt types.ResourceType, source string, links []string, linkType types.LinkType) error {
	hash, err := link.HashPath(e.fs, source)
	if err != nil {
		e.logger.Warn().Err(err).Str("source", source).Msg("Cannot fingerprint source")
		hash = ""
	}

	status := types.StatusActive
	if linkType == "" {
		linkType = types.LinkSymlink
	}
	return e.store.Upsert(manifest.LinkedResource{
		ResourceType: rt,
		SourcePath:   source,
		LinkPaths:    links,
		ContentHash:  hash,
		LinkType:     linkType,
		Status:       status,
	})
}

// planResourceLocked resolves which side is authoritative and which
// side receives links for the active mode.
func (e *Engine) planResourceLocked(rt types.ResourceType) resourcePlan {
	switch e.cfg.Mode {
	case types.ModeTrueUnified:
		plan := resourcePlan{
			source: paths.SharedResourceDir(e.cfg.SharedPath, rt),
			links:  []string{e.installs.StableResourceDir(rt)},
		}
		if lazerDir := e.installs.LazerResourceDir(rt); lazerDir != "" {
			plan.links = append(plan.links, lazerDir)
		}
		return plan

	case types.ModeLazerMaster:
		source := e.installs.LazerResourceDir(rt)
		if source == "" {
			source = e.installs.LazerExportDir(rt)
		}
		if rt == types.ResourceBeatmaps {
			return resourcePlan{
				source:    source,
				perChild:  true,
				childRoot: e.installs.StableResourceDir(rt),
			}
		}
		return resourcePlan{
			source: source,
			links:  []string{e.installs.StableResourceDir(rt)},
		}

	case types.ModeStableMaster:
		return resourcePlan{
			source:    e.installs.StableResourceDir(rt),
			viaImport: true,
		}
	}
	return resourcePlan{}
}

// resourceForPathLocked finds the shared resource whose authoritative
// tree contains path.
func (e *Engine) resourceForPathLocked(path string) (types.ResourceType, bool) {
	for _, rt := range e.cfg.SharedResources {
		plan := e.planResourceLocked(rt)
		if plan.source == "" {
			continue
		}
		if path == plan.source || strings.HasPrefix(path, plan.source+string(filepath.Separator)) {
			return rt, true
		}
	}
	return "", false
}

// watchRoots returns the authoritative directories worth watching for
// the current configuration.
func (e *Engine) watchRoots() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var roots []string
	for _, rt := range e.cfg.SharedResources {
		plan := e.planResourceLocked(rt)
		if plan.source == "" {
			continue
		}
		if _, err := e.fs.Stat(plan.source); err == nil {
			roots = append(roots, plan.source)
		}
	}
	return roots
}
