package engine

import (
	"context"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/migration"
	"github.com/arthur-debert/unisync/pkg/types"
)

// PlanMigration previews the migration without touching the filesystem.
func (e *Engine) PlanMigration() (migration.Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkReadyLocked(); err != nil {
		return migration.Plan{}, err
	}
	return e.controllerLocked().Plan()
}

// StartMigration runs the full forward path. While it runs, the
// migration-in-progress flag makes every other mutating command refuse,
// so no sync can interleave with a step sequence. A failed step rolls
// back automatically before the error surfaces.
func (e *Engine) StartMigration(ctx context.Context) error {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.gateForRunningGame(); err != nil {
		e.mu.Unlock()
		return err
	}
	ctrl := e.controllerLocked()
	e.migrating = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.migrating = false
		e.mu.Unlock()
	}()

	if err := ctrl.Run(ctx); err != nil {
		e.emit(types.EngineEvent{
			Kind:    types.EventMigrationFailed,
			Message: err.Error(),
		})
		e.mu.Lock()
		e.noteManifestFault(err)
		if errors.IsErrorCode(err, errors.ErrRollbackFailed) && e.poisoned == nil {
			// Rollback failures leave the filesystem half-transitioned
			// and need operator attention before anything else runs.
			e.poisoned = err
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// RollbackMigration undoes a previous migration attempt using the
// on-disk journal. Safe to retry after a partial rollback.
func (e *Engine) RollbackMigration(ctx context.Context) error {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.gateForRunningGame(); err != nil {
		e.mu.Unlock()
		return err
	}
	ctrl := e.controllerLocked()
	e.migrating = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.migrating = false
		e.mu.Unlock()
	}()

	return ctrl.Rollback(ctx)
}

func (e *Engine) controllerLocked() *migration.Controller {
	return migration.NewController(e.fs, e.op, e.store, e.cfg, e.installs, e.pths,
		func(p types.MigrationProgress) {
			e.emit(types.EngineEvent{Kind: types.EventMigrationProgress, Migration: p})
		})
}
