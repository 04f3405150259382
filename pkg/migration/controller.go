package migration

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/unisync/pkg/config"
	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/link"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/paths"
	"github.com/arthur-debert/unisync/pkg/types"
)

// spaceSafetyFactor pads the required disk space estimate: the copy
// briefly coexists with the originals until CleanupBackups runs.
const spaceSafetyFactor = 1.1

// backupSuffix marks a directory renamed aside so a link could take
// its place. Removed by CleanupBackups, restored by rollback.
const backupSuffix = ".pre-unify"

// linkSpec is one resolved source→links relationship the migration
// will materialize.
type linkSpec struct {
	resource types.ResourceType
	source   string
	copyFrom string
	links    []string
}

// Plan previews a migration without touching the filesystem.
type Plan struct {
	Steps          []Step
	BytesRequired  int64
	BytesFree      int64
	ElevationRisk  bool
	SharedPath     string
	ResourcesMoved []types.ResourceType
}

// Controller executes the forward path and its rollback.
type Controller struct {
	fs          types.FS
	op          *link.Operator
	store       manifest.Store
	cfg         config.UnifiedConfig
	installs    paths.Installs
	journalPath string
	backupDir   string
	progress    func(types.MigrationProgress)
	logger      zerolog.Logger

	bytesDone int64

	// beforeStep, when set, runs ahead of each step. Tests use it to
	// inject failures at exact step boundaries.
	beforeStep func(Step) error
}

// NewController wires a controller. progress may be nil.
func NewController(fsys types.FS, op *link.Operator, store manifest.Store,
	cfg config.UnifiedConfig, installs paths.Installs, p paths.Paths,
	progress func(types.MigrationProgress)) *Controller {
	return &Controller{
		fs:          fsys,
		op:          op,
		store:       store,
		cfg:         cfg,
		installs:    installs,
		journalPath: p.JournalPath(),
		backupDir:   p.BackupDir(),
		progress:    progress,
		logger:      logging.GetLogger("migration"),
	}
}

// Plan computes what a migration would do: the steps, the space it
// needs versus what is free, and whether the probed capability makes a
// privilege prompt likely.
func (c *Controller) Plan() (Plan, error) {
	specs, err := c.resolveSpecs()
	if err != nil {
		return Plan{}, err
	}

	var required int64
	var moved []types.ResourceType
	for _, spec := range specs {
		moved = append(moved, spec.resource)
		if spec.copyFrom == "" {
			continue
		}
		size, err := link.DirSize(c.fs, spec.copyFrom)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Plan{}, errors.Wrapf(err, errors.ErrFileAccess, "cannot size %s", spec.copyFrom)
		}
		required += size
	}
	required = int64(float64(required) * spaceSafetyFactor)

	free, err := diskFree(c.cfg.SharedPath)
	if err != nil {
		return Plan{}, errors.Wrapf(err, errors.ErrFileAccess, "cannot determine free space for %s", c.cfg.SharedPath)
	}

	return Plan{
		Steps:          Steps(),
		BytesRequired:  required,
		BytesFree:      free,
		ElevationRisk:  c.op.Capability() != types.CapabilityFull,
		SharedPath:     c.cfg.SharedPath,
		ResourcesMoved: moved,
	}, nil
}

// Run executes the forward path. Any step failure triggers rollback of
// the already-completed steps in strict reverse order before the
// failure surfaces. Cancellation is honored at step boundaries only.
func (c *Controller) Run(ctx context.Context) error {
	j := &journal{
		StartedAt:  time.Now().UTC(),
		Mode:       c.cfg.Mode,
		SharedPath: c.cfg.SharedPath,
	}
	c.bytesDone = 0

	actions := c.actions()
	for i, act := range actions {
		if err := ctx.Err(); err != nil {
			c.logger.Warn().Str("step", string(act.step)).Msg("Migration cancelled, rolling back")
			if rbErr := c.rollback(j); rbErr != nil {
				return rbErr
			}
			return errors.Wrap(err, errors.ErrMigrationFailed, "migration cancelled").
				WithDetail("step", string(act.step))
		}

		if c.beforeStep != nil {
			if err := c.beforeStep(act.step); err != nil {
				return c.fail(j, act.step, err)
			}
		}

		c.report(act.step, i, len(actions), j.BytesTotal)
		c.logger.Info().Str("step", string(act.step)).Msg("Migration step started")

		if err := act.run(j); err != nil {
			return c.fail(j, act.step, err)
		}

		j.Completed = append(j.Completed, act.step)
		if act.step != StepCleanupBackups {
			if err := j.save(c.fs, c.journalPath); err != nil {
				return c.fail(j, act.step, err)
			}
		}
	}

	c.report(StepCleanupBackups, len(actions), len(actions), j.BytesTotal)
	c.logger.Info().Msg("Migration completed")
	return nil
}

// Rollback undoes a previous migration attempt recorded in the journal
// on disk. Used for operator-initiated rollback and for crash recovery
// when a journal is found at startup. Idempotent: retrying after a
// partial rollback never errors on already-removed artifacts.
func (c *Controller) Rollback(ctx context.Context) error {
	j, err := loadJournal(c.fs, c.journalPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.rollback(j)
}

// fail rolls back and wraps the step failure. A rollback failure takes
// precedence: it is the one condition needing manual intervention.
func (c *Controller) fail(j *journal, step Step, err error) error {
	c.logger.Error().Err(err).Str("step", string(step)).Msg("Migration step failed, rolling back")
	if rbErr := c.rollback(j); rbErr != nil {
		return rbErr
	}
	return errors.Wrapf(err, errors.ErrMigrationFailed, "step %s failed", step).
		WithDetail("step", string(step))
}

func (c *Controller) rollback(j *journal) error {
	byStep := make(map[Step]stepAction)
	for _, act := range c.actions() {
		byStep[act.step] = act
	}

	for i := len(j.Completed) - 1; i >= 0; i-- {
		act := byStep[j.Completed[i]]
		if act.compensate == nil {
			continue
		}
		if err := act.compensate(j); err != nil {
			return errors.Wrapf(err, errors.ErrRollbackFailed,
				"compensating step %s failed, manual intervention required", act.step).
				WithDetail("step", string(act.step)).
				WithDetail("journal", c.journalPath)
		}
		c.logger.Debug().Str("step", string(act.step)).Msg("Compensated migration step")
	}

	if err := c.fs.Remove(c.journalPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn().Err(err).Msg("Could not remove migration journal")
	}
	c.logger.Info().Msg("Migration rolled back")
	return nil
}

func (c *Controller) report(step Step, idx, count int, bytesTotal int64) {
	if c.progress == nil {
		return
	}
	c.progress(types.MigrationProgress{
		Step:       string(step),
		StepIndex:  idx,
		StepCount:  count,
		Percent:    float64(idx) / float64(count) * 100,
		BytesDone:  c.bytesDone,
		BytesTotal: bytesTotal,
	})
}

func (c *Controller) actions() []stepAction {
	return []stepAction{
		{step: StepCheckPrerequisites, run: c.checkPrerequisites},
		{step: StepCreateSharedFolder, run: c.createSharedFolder, compensate: c.removeSharedFolder},
		{step: StepBackupOriginal, run: c.backupOriginal, compensate: c.restoreManifest},
		{step: StepCopyBeatmaps, run: c.copyContent, compensate: c.removeCopiedContent},
		{step: StepCreateJunctions, run: c.createLinks, compensate: c.removeLinks},
		{step: StepUpdateManifest, run: c.updateManifest, compensate: c.revertManifest},
		{step: StepVerifyIntegrity, run: c.verifyIntegrity},
		{step: StepCleanupBackups, run: c.cleanupBackups},
	}
}

// resolveSpecs maps the configured shared resources to concrete
// source→links relationships. Migration applies to true_unified; the
// master modes link incrementally through the engine's sync path and
// have nothing to transition.
func (c *Controller) resolveSpecs() ([]linkSpec, error) {
	if c.cfg.Mode != types.ModeTrueUnified {
		return nil, errors.Newf(errors.ErrConfigValid,
			"migration requires mode true_unified, got %q", c.cfg.Mode)
	}
	if c.cfg.SharedPath == "" {
		return nil, errors.New(errors.ErrConfigValid, "shared_path is not set")
	}

	var specs []linkSpec
	for _, rt := range c.cfg.SharedResources {
		spec := linkSpec{
			resource: rt,
			source:   paths.SharedResourceDir(c.cfg.SharedPath, rt),
			copyFrom: c.installs.StableResourceDir(rt),
			links:    []string{c.installs.StableResourceDir(rt)},
		}
		if lazerDir := c.installs.LazerResourceDir(rt); lazerDir != "" {
			spec.links = append(spec.links, lazerDir)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
