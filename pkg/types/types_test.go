package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeDisabled, ModeStableMaster, ModeLazerMaster, ModeTrueUnified} {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMode("bidirectional")
	assert.Error(t, err)
}

func TestModeEnabled(t *testing.T) {
	assert.False(t, ModeDisabled.Enabled())
	assert.False(t, Mode("").Enabled())
	assert.True(t, ModeStableMaster.Enabled())
	assert.True(t, ModeLazerMaster.Enabled())
	assert.True(t, ModeTrueUnified.Enabled())
}

func TestParseResourceType(t *testing.T) {
	for _, rt := range AllResourceTypes() {
		got, err := ParseResourceType(string(rt))
		require.NoError(t, err)
		assert.Equal(t, rt, got)
	}

	_, err := ParseResourceType("soundtracks")
	assert.Error(t, err)
}

func TestStableFolder(t *testing.T) {
	// Beatmaps are the one resource whose stable folder differs from
	// its name
	assert.Equal(t, "Songs", ResourceBeatmaps.StableFolder())
	assert.Equal(t, "Skins", ResourceSkins.StableFolder())
	assert.Equal(t, "Replays", ResourceReplays.StableFolder())
	assert.Equal(t, "Screenshots", ResourceScreenshots.StableFolder())
}

func TestSharedFolder(t *testing.T) {
	for _, rt := range AllResourceTypes() {
		assert.Equal(t, string(rt), rt.SharedFolder())
	}
}

func TestLinkTypeDegraded(t *testing.T) {
	assert.True(t, LinkCopy.Degraded())
	assert.False(t, LinkSymlink.Degraded())
	assert.False(t, LinkJunction.Degraded())
	assert.False(t, LinkHardlink.Degraded())
}
