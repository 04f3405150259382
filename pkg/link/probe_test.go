package link

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/filesystem"
	"github.com/arthur-debert/unisync/pkg/types"
)

func TestProbeReportsFullWhereSymlinksWork(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs developer mode on windows")
	}

	dir := t.TempDir()
	got := Probe(filesystem.NewOS(), dir)
	assert.Equal(t, types.CapabilityFull, got)
}

func TestProbeLeavesNoResidue(t *testing.T) {
	dir := t.TempDir()
	Probe(filesystem.NewOS(), dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProbeCreatesMissingDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs developer mode on windows")
	}

	dir := filepath.Join(t.TempDir(), "nested", "probe-target")
	got := Probe(filesystem.NewOS(), dir)
	assert.Equal(t, types.CapabilityFull, got)

	_, err := os.Stat(dir)
	assert.NoError(t, err)
}

func TestProbeUnwritableDirIsNone(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	dir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(dir, 0555))

	got := Probe(filesystem.NewOS(), dir)
	assert.Equal(t, types.CapabilityNone, got)
}
