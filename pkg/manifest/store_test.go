package manifest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/testutil"
	"github.com/arthur-debert/unisync/pkg/types"
)

const manifestPath = "/data/unisync/unified-manifest.json"

func newEntry(rt types.ResourceType, source string) LinkedResource {
	return LinkedResource{
		ResourceType: rt,
		SourcePath:   source,
		LinkPaths:    []string{"/stable/" + rt.StableFolder()},
		ContentHash:  "abc123",
		LinkType:     types.LinkSymlink,
		Status:       types.StatusActive,
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	fs := testutil.NewTestFS()

	st, err := Load(fs, manifestPath)
	require.NoError(t, err)
	assert.Empty(t, st.All())
	assert.Equal(t, manifestPath, st.Path())
}

func TestUpsertPersistsImmediately(t *testing.T) {
	fs := testutil.NewTestFS()
	st, err := Load(fs, manifestPath)
	require.NoError(t, err)

	require.NoError(t, st.Upsert(newEntry(types.ResourceBeatmaps, "/shared/beatmaps")))

	// A fresh load sees the entry without any explicit save call
	st2, err := Load(fs, manifestPath)
	require.NoError(t, err)
	entries := st2.All()
	require.Len(t, entries, 1)
	assert.Equal(t, types.ResourceBeatmaps, entries[0].ResourceType)
	assert.Equal(t, "/shared/beatmaps", entries[0].SourcePath)
	assert.False(t, entries[0].ModifiedAt.IsZero())
}

func TestUpsertReplacesByKey(t *testing.T) {
	fs := testutil.NewTestFS()
	st, err := Load(fs, manifestPath)
	require.NoError(t, err)

	first := newEntry(types.ResourceSkins, "/shared/skins")
	require.NoError(t, st.Upsert(first))

	second := first
	second.Status = types.StatusBroken
	require.NoError(t, st.Upsert(second))

	entries := st.All()
	require.Len(t, entries, 1)
	assert.Equal(t, types.StatusBroken, entries[0].Status)
}

func TestGetAndRemove(t *testing.T) {
	fs := testutil.NewTestFS()
	st, err := Load(fs, manifestPath)
	require.NoError(t, err)

	require.NoError(t, st.Upsert(newEntry(types.ResourceSkins, "/shared/skins")))

	got, ok := st.Get(types.ResourceSkins, "/shared/skins")
	assert.True(t, ok)
	assert.Equal(t, "abc123", got.ContentHash)

	_, ok = st.Get(types.ResourceSkins, "/elsewhere")
	assert.False(t, ok)

	require.NoError(t, st.Remove(types.ResourceSkins, "/shared/skins"))
	_, ok = st.Get(types.ResourceSkins, "/shared/skins")
	assert.False(t, ok)

	// Removing a missing entry is not an error
	assert.NoError(t, st.Remove(types.ResourceSkins, "/shared/skins"))
}

func TestReplaceAll(t *testing.T) {
	fs := testutil.NewTestFS()
	st, err := Load(fs, manifestPath)
	require.NoError(t, err)

	require.NoError(t, st.Upsert(newEntry(types.ResourceSkins, "/shared/skins")))
	require.NoError(t, st.Upsert(newEntry(types.ResourceBeatmaps, "/shared/beatmaps")))

	snapshot := []LinkedResource{newEntry(types.ResourceReplays, "/shared/replays")}
	require.NoError(t, st.ReplaceAll(snapshot))

	entries := st.All()
	require.Len(t, entries, 1)
	assert.Equal(t, types.ResourceReplays, entries[0].ResourceType)

	// Back to empty
	require.NoError(t, st.ReplaceAll(nil))
	assert.Empty(t, st.All())
}

func TestAllIsSorted(t *testing.T) {
	fs := testutil.NewTestFS()
	st, err := Load(fs, manifestPath)
	require.NoError(t, err)

	for i := 3; i >= 0; i-- {
		require.NoError(t, st.Upsert(newEntry(types.ResourceBeatmaps, fmt.Sprintf("/shared/%d", i))))
	}

	entries := st.All()
	require.Len(t, entries, 4)
	for i := 0; i < 4; i++ {
		assert.Equal(t, fmt.Sprintf("/shared/%d", i), entries[i].SourcePath)
	}
}

func TestLoadRefusesNewerVersion(t *testing.T) {
	fs := testutil.NewTestFS()
	doc := map[string]interface{}{
		"version":   Version + 1,
		"resources": []LinkedResource{},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	testutil.WriteFile(t, fs, manifestPath, string(data))

	_, err = Load(fs, manifestPath)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrManifest))
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestLoadRefusesCorruptDocument(t *testing.T) {
	fs := testutil.NewTestFS()
	testutil.WriteFile(t, fs, manifestPath, "{not json")

	_, err := Load(fs, manifestPath)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrManifest))
}

func TestNoopStoreRecordsNothing(t *testing.T) {
	st := NewNoop()

	require.NoError(t, st.Upsert(newEntry(types.ResourceSkins, "/shared/skins")))
	assert.Empty(t, st.All())
	_, ok := st.Get(types.ResourceSkins, "/shared/skins")
	assert.False(t, ok)
	assert.Empty(t, st.Path())
}
