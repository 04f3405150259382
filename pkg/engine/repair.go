package engine

import (
	"github.com/arthur-debert/unisync/pkg/link"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/types"
)

// RepairOptions tunes a repair pass.
type RepairOptions struct {
	// AdoptStale re-fingerprints Stale entries, accepting the current
	// content as the new truth. Off by default: overwriting a
	// potentially-newer edit without operator confirmation is unsafe,
	// so Stale is warn-only unless explicitly adopted.
	AdoptStale bool
}

// VerifyAll re-derives the status of every manifest entry and returns
// the aggregate health report. Findings are reported, not corrected;
// correction happens only through Repair.
func (e *Engine) VerifyAll() (types.HealthReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkReadyLocked(); err != nil {
		return types.HealthReport{}, err
	}

	report := manifest.VerifyAll(e.store, e.op)
	e.emit(types.EngineEvent{Kind: types.EventLinkHealth, Health: report})
	return report, nil
}

// Repair verifies everything, then recreates links for Broken and
// Pending entries. Stale entries are only reported unless AdoptStale is
// set.
func (e *Engine) Repair(opts RepairOptions) (types.HealthReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkReadyLocked(); err != nil {
		return types.HealthReport{}, err
	}
	if err := e.gateForRunningGame(); err != nil {
		return types.HealthReport{}, err
	}

	manifest.VerifyAll(e.store, e.op)

	for _, res := range e.store.All() {
		switch res.Status {
		case types.StatusBroken, types.StatusPending:
			if err := e.repairEntryLocked(res); err != nil {
				e.logger.Error().Err(err).Str("source", res.SourcePath).Msg("Entry repair failed")
				e.noteManifestFault(err)
				if e.poisoned != nil {
					return types.HealthReport{}, err
				}
			}
		case types.StatusStale:
			if opts.AdoptStale {
				if err := e.adoptStaleLocked(res); err != nil {
					e.logger.Error().Err(err).Str("source", res.SourcePath).Msg("Cannot adopt stale entry")
				}
			} else {
				e.logger.Warn().Str("source", res.SourcePath).
					Msg("Entry is stale; content changed outside the link. Re-run repair with stale adoption to accept it")
			}
		}
	}

	report := manifest.VerifyAll(e.store, e.op)
	e.emit(types.EngineEvent{Kind: types.EventLinkHealth, Health: report})
	return report, nil
}

// repairEntryLocked recreates every link path of one entry. Entries
// whose source vanished stay Broken; recreating a link to nothing would
// hide the real damage.
func (e *Engine) repairEntryLocked(res manifest.LinkedResource) error {
	if len(res.LinkPaths) == 0 {
		// Pending import intents have nothing to recreate.
		return nil
	}
	if _, err := e.fs.Stat(res.SourcePath); err != nil {
		e.logger.Warn().Str("source", res.SourcePath).Msg("Source missing, entry stays broken")
		return nil
	}

	linkType := res.LinkType
	for _, lp := range res.LinkPaths {
		outcome, err := e.op.CreateLink(res.SourcePath, lp)
		if err != nil {
			return err
		}
		if outcome.Type == types.LinkCopy {
			linkType = types.LinkCopy
		} else if !outcome.AlreadyLinked {
			linkType = outcome.Type
		}
	}

	hash, err := link.HashPath(e.fs, res.SourcePath)
	if err != nil {
		hash = res.ContentHash
	}

	res.LinkType = linkType
	res.ContentHash = hash
	res.Status = types.StatusActive
	return e.store.Upsert(res)
}

// adoptStaleLocked re-fingerprints a deliberately modified source,
// accepting the drift as the new truth.
func (e *Engine) adoptStaleLocked(res manifest.LinkedResource) error {
	hash, err := link.HashPath(e.fs, res.SourcePath)
	if err != nil {
		return err
	}
	res.ContentHash = hash
	res.Status = types.StatusActive
	return e.store.Upsert(res)
}
