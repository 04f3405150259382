package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/types"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
mode = "true_unified"
shared_path = "/srv/osu-shared"
shared_resources = ["beatmaps", "skins"]
use_junctions = false

[triggers]
file_watcher = true
watcher_interval_secs = 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, types.ModeTrueUnified, cfg.Mode)
	assert.Equal(t, "/srv/osu-shared", cfg.SharedPath)
	assert.Equal(t, []types.ResourceType{types.ResourceBeatmaps, types.ResourceSkins}, cfg.SharedResources)
	assert.False(t, cfg.UseJunctions)
	assert.True(t, cfg.Triggers.FileWatcher)
	assert.Equal(t, 10, cfg.Triggers.WatcherIntervalSecs)

	// Defaults survive for keys the file does not set
	assert.True(t, cfg.TrackManifest)
	assert.True(t, cfg.Triggers.Manual)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
mode = "stable_master"
shared_resources = ["beatmaps"]
`)

	t.Setenv("UNISYNC_MODE", "lazer_master")
	t.Setenv("UNISYNC_TRACK_MANIFEST", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, types.ModeLazerMaster, cfg.Mode)
	assert.False(t, cfg.TrackManifest)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfigFile(t, `
mode = "true_unified"
shared_resources = ["beatmaps"]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared_path")
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfigFile(t, `mode = `)

	_, err := Load(path)
	require.Error(t, err)
}
