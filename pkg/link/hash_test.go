package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/testutil"
)

func TestHashPathFileContent(t *testing.T) {
	fs := testutil.NewTestFS()
	testutil.WriteFile(t, fs, "/songs/map.osu", "osu file format v14")
	testutil.WriteFile(t, fs, "/songs/copy.osu", "osu file format v14")
	testutil.WriteFile(t, fs, "/songs/other.osu", "osu file format v13")

	h1, err := HashPath(fs, "/songs/map.osu")
	require.NoError(t, err)
	h2, err := HashPath(fs, "/songs/copy.osu")
	require.NoError(t, err)
	h3, err := HashPath(fs, "/songs/other.osu")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestHashPathDirectoryListing(t *testing.T) {
	fs := testutil.NewTestFS()
	testutil.WriteFile(t, fs, "/songs/1 - artist/map.osu", "aaaa")
	testutil.WriteFile(t, fs, "/songs/1 - artist/audio.mp3", "bbbb")

	before, err := HashPath(fs, "/songs")
	require.NoError(t, err)

	// Same names and sizes hash identically even if content differs
	testutil.WriteFile(t, fs, "/songs/1 - artist/map.osu", "cccc")
	same, err := HashPath(fs, "/songs")
	require.NoError(t, err)
	assert.Equal(t, before, same)

	// A new entry changes the fingerprint
	testutil.WriteFile(t, fs, "/songs/2 - artist/map.osu", "dddd")
	after, err := HashPath(fs, "/songs")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestHashPathMissing(t *testing.T) {
	fs := testutil.NewTestFS()
	_, err := HashPath(fs, "/nope")
	assert.Error(t, err)
}
