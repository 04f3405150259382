package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/types"
)

func TestNewRespectsEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfigDir, "/custom/config")
	t.Setenv(EnvDataDir, "/custom/data")

	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/custom/config", p.ConfigDir())
	assert.Equal(t, "/custom/data", p.DataDir())
	assert.Equal(t, filepath.Join("/custom/config", ManifestFileName), p.ManifestPath())
	assert.Equal(t, filepath.Join("/custom/config", ConfigFileName), p.ConfigFilePath())
	assert.Equal(t, filepath.Join("/custom/data", BackupDirName), p.BackupDir())
	assert.Equal(t, filepath.Join("/custom/data", BackupDirName, JournalFileName), p.JournalPath())
}

func TestNewDefaultsUnderXDG(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	p, err := New()
	require.NoError(t, err)

	assert.Contains(t, p.ConfigDir(), UnisyncDirName)
	assert.Contains(t, p.DataDir(), UnisyncDirName)
}

func TestDetectInstallsEnvOverride(t *testing.T) {
	t.Setenv(EnvStableRoot, "/games/osu-stable")
	t.Setenv(EnvLazerRoot, "/games/osu-lazer")

	i := DetectInstalls()
	assert.Equal(t, "/games/osu-stable", i.StableRoot)
	assert.Equal(t, "/games/osu-lazer", i.LazerRoot)

	assert.Equal(t, "/games/osu-stable", i.Root(types.GameStable))
	assert.Equal(t, "/games/osu-lazer", i.Root(types.GameLazer))
}

func TestResourceDirs(t *testing.T) {
	i := Installs{StableRoot: "/stable", LazerRoot: "/lazer"}

	// Beatmaps live in Songs on the stable side
	assert.Equal(t, "/stable/Songs", i.StableResourceDir(types.ResourceBeatmaps))
	assert.Equal(t, "/stable/Skins", i.StableResourceDir(types.ResourceSkins))

	// Lazer keeps beatmaps and skins in its content-addressed store
	assert.Empty(t, i.LazerResourceDir(types.ResourceBeatmaps))
	assert.Empty(t, i.LazerResourceDir(types.ResourceSkins))
	assert.Equal(t, "/lazer/replays", i.LazerResourceDir(types.ResourceReplays))
	assert.Equal(t, "/lazer/screenshots", i.LazerResourceDir(types.ResourceScreenshots))

	assert.Equal(t, "/lazer/files", i.LazerFilesDir())
	assert.Equal(t, "/lazer/exports/beatmaps", i.LazerExportDir(types.ResourceBeatmaps))

	assert.Equal(t, "/srv/shared/beatmaps", SharedResourceDir("/srv/shared", types.ResourceBeatmaps))
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/peppy")

	assert.Equal(t, "/home/peppy/osu", ExpandHome("~/osu"))
	assert.Equal(t, "/home/peppy", ExpandHome("~"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~other/osu", ExpandHome("~other/osu"))
	assert.Empty(t, ExpandHome(""))
}

func TestNormalizePath(t *testing.T) {
	got, err := NormalizePath("/a/b/../c")
	require.NoError(t, err)
	assert.Equal(t, "/a/c", got)

	_, err = NormalizePath("")
	assert.Error(t, err)
}
