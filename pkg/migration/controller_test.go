package migration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/config"
	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/filesystem"
	"github.com/arthur-debert/unisync/pkg/link"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/paths"
	"github.com/arthur-debert/unisync/pkg/types"
)

// testPaths roots all durable files inside a test's temp directory.
type testPaths struct {
	root string
}

func (p testPaths) ConfigDir() string      { return filepath.Join(p.root, "config") }
func (p testPaths) DataDir() string        { return filepath.Join(p.root, "data") }
func (p testPaths) StateDir() string       { return filepath.Join(p.root, "state") }
func (p testPaths) ManifestPath() string   { return filepath.Join(p.ConfigDir(), paths.ManifestFileName) }
func (p testPaths) ConfigFilePath() string { return filepath.Join(p.ConfigDir(), paths.ConfigFileName) }
func (p testPaths) BackupDir() string      { return filepath.Join(p.DataDir(), paths.BackupDirName) }
func (p testPaths) JournalPath() string    { return filepath.Join(p.BackupDir(), paths.JournalFileName) }
func (p testPaths) LogFilePath() string    { return filepath.Join(p.StateDir(), paths.LogFileName) }

type fixture struct {
	root     string
	fs       types.FS
	paths    testPaths
	installs paths.Installs
	cfg      config.UnifiedConfig
	store    manifest.Store
	ctrl     *Controller
}

// newFixture lays out a stable installation with beatmaps and replays
// and wires a controller against it.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs developer mode on windows")
	}

	root := t.TempDir()
	fsys := filesystem.NewOS()

	installs := paths.Installs{
		StableRoot: filepath.Join(root, "stable"),
		LazerRoot:  filepath.Join(root, "lazer"),
	}
	for name, content := range map[string]string{
		"stable/Songs/1 - artist/map.osu":   "osu file format v14",
		"stable/Songs/1 - artist/audio.mp3": "mp3 bytes",
		"stable/Songs/2 - another/map.osu":  "osu file format v14",
		"stable/Replays/peppy - replay.osr": "replay bytes",
		"lazer/files/ab/abcdef":             "lazer owned",
	} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	cfg := config.Default()
	cfg.Mode = types.ModeTrueUnified
	cfg.SharedPath = filepath.Join(root, "shared")
	cfg.SharedResources = []types.ResourceType{types.ResourceBeatmaps, types.ResourceReplays}

	tp := testPaths{root: filepath.Join(root, "unisync")}
	store, err := manifest.Load(fsys, tp.ManifestPath())
	require.NoError(t, err)

	op := link.NewOperator(fsys, types.CapabilityFull, link.Options{CopyFallback: true})

	return &fixture{
		root:     root,
		fs:       fsys,
		paths:    tp,
		installs: installs,
		cfg:      cfg,
		store:    store,
		ctrl:     NewController(fsys, op, store, cfg, installs, tp, nil),
	}
}

func (f *fixture) assertPristine(t *testing.T) {
	t.Helper()

	// Originals are real directories again with their content intact
	songs := filepath.Join(f.installs.StableRoot, "Songs")
	fi, err := os.Lstat(songs)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Zero(t, fi.Mode()&os.ModeSymlink)

	data, err := os.ReadFile(filepath.Join(songs, "1 - artist", "map.osu"))
	require.NoError(t, err)
	assert.Equal(t, "osu file format v14", string(data))

	_, err = os.Lstat(filepath.Join(f.installs.StableRoot, "Replays"))
	assert.NoError(t, err)

	// No backups or shared content left behind
	_, err = os.Lstat(songs + backupSuffix)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(f.cfg.SharedPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(f.paths.JournalPath())
	assert.True(t, os.IsNotExist(err))
}

func TestMigrationEndToEnd(t *testing.T) {
	f := newFixture(t)

	var progress []types.MigrationProgress
	f.ctrl.progress = func(p types.MigrationProgress) { progress = append(progress, p) }

	require.NoError(t, f.ctrl.Run(context.Background()))

	// Both original folders are now links into the shared tree
	for folder, resource := range map[string]types.ResourceType{
		"Songs":   types.ResourceBeatmaps,
		"Replays": types.ResourceReplays,
	} {
		lp := filepath.Join(f.installs.StableRoot, folder)
		target, err := os.Readlink(lp)
		require.NoError(t, err, folder)
		assert.Equal(t, paths.SharedResourceDir(f.cfg.SharedPath, resource), target)
	}

	// Replays also link on the lazer side
	target, err := os.Readlink(filepath.Join(f.installs.LazerRoot, "replays"))
	require.NoError(t, err)
	assert.Equal(t, paths.SharedResourceDir(f.cfg.SharedPath, types.ResourceReplays), target)

	// Content reached the shared tree and is readable through the link
	data, err := os.ReadFile(filepath.Join(f.installs.StableRoot, "Songs", "1 - artist", "map.osu"))
	require.NoError(t, err)
	assert.Equal(t, "osu file format v14", string(data))

	// Backups and journal are gone
	_, err = os.Lstat(filepath.Join(f.installs.StableRoot, "Songs"+backupSuffix))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Lstat(f.paths.JournalPath())
	assert.True(t, os.IsNotExist(err))

	// Manifest records both resources as active
	entries := f.store.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, types.StatusActive, e.Status)
		assert.Equal(t, types.LinkSymlink, e.LinkType)
		assert.NotEmpty(t, e.ContentHash)
	}

	// Progress moved through every step
	require.NotEmpty(t, progress)
	assert.Equal(t, string(StepCheckPrerequisites), progress[0].Step)
}

func TestMigrationRollsBackOnFailureAtEveryStep(t *testing.T) {
	seeded := manifest.LinkedResource{
		ResourceType: types.ResourceSkins,
		SourcePath:   "/elsewhere/skins",
		LinkPaths:    []string{"/stable/Skins"},
		Status:       types.StatusActive,
	}

	for _, failAt := range Steps() {
		if failAt == StepCleanupBackups {
			// Cleanup never fails the migration
			continue
		}
		t.Run(string(failAt), func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.store.Upsert(seeded))

			f.ctrl.beforeStep = func(s Step) error {
				if s == failAt {
					return errors.New(errors.ErrInternal, "injected failure")
				}
				return nil
			}

			err := f.ctrl.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrMigrationFailed))

			f.assertPristine(t)

			// The pre-existing manifest entry survived the rollback
			entries := f.store.All()
			require.Len(t, entries, 1)
			assert.Equal(t, types.ResourceSkins, entries[0].ResourceType)
		})
	}
}

func TestMigrationCancellation(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.ctrl.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMigrationFailed))
	f.assertPristine(t)
}

func TestMigrationPreservesPreexistingSharedRoot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.cfg.SharedPath, 0755))
	marker := filepath.Join(f.cfg.SharedPath, "keep.txt")
	require.NoError(t, os.WriteFile(marker, []byte("mine"), 0644))

	f.ctrl.beforeStep = func(s Step) error {
		if s == StepCreateJunctions {
			return errors.New(errors.ErrInternal, "injected failure")
		}
		return nil
	}

	err := f.ctrl.Run(context.Background())
	require.Error(t, err)

	// The shared root predates the migration, so rollback keeps it
	_, err = os.Stat(marker)
	assert.NoError(t, err)

	// But the copied resource folders are gone
	_, err = os.Lstat(paths.SharedResourceDir(f.cfg.SharedPath, types.ResourceBeatmaps))
	assert.True(t, os.IsNotExist(err))
}

func TestRollbackFromJournalOnDisk(t *testing.T) {
	f := newFixture(t)

	// Drive the forward path up to the point where links exist, then
	// stop without cleanup, as a crash would.
	j := &journal{Mode: f.cfg.Mode, SharedPath: f.cfg.SharedPath}
	for _, act := range f.ctrl.actions() {
		if act.step == StepVerifyIntegrity {
			break
		}
		require.NoError(t, act.run(j))
		j.Completed = append(j.Completed, act.step)
	}
	require.NoError(t, j.save(f.fs, f.paths.JournalPath()))

	// Sanity: the link is in place
	fi, err := os.Lstat(filepath.Join(f.installs.StableRoot, "Songs"))
	require.NoError(t, err)
	require.NotZero(t, fi.Mode()&os.ModeSymlink)

	require.NoError(t, f.ctrl.Rollback(context.Background()))
	f.assertPristine(t)
	assert.Empty(t, f.store.All())
}

func TestRollbackWithoutJournal(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.Rollback(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestPlan(t *testing.T) {
	f := newFixture(t)

	plan, err := f.ctrl.Plan()
	require.NoError(t, err)

	assert.Equal(t, Steps(), plan.Steps)
	assert.Equal(t, f.cfg.SharedPath, plan.SharedPath)
	assert.Equal(t, []types.ResourceType{types.ResourceBeatmaps, types.ResourceReplays}, plan.ResourcesMoved)
	assert.False(t, plan.ElevationRisk)
	assert.Positive(t, plan.BytesRequired)
	assert.Positive(t, plan.BytesFree)

	// Planning changed nothing
	_, err = os.Lstat(f.cfg.SharedPath)
	assert.True(t, os.IsNotExist(err))
}

func TestPlanRejectsMasterModes(t *testing.T) {
	f := newFixture(t)
	f.ctrl.cfg.Mode = types.ModeStableMaster

	_, err := f.ctrl.Plan()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}
