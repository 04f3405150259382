package testutil

import (
	"testing"

	"github.com/arthur-debert/unisync/pkg/filesystem"
	"github.com/arthur-debert/unisync/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// NewTestFS creates a new in-memory filesystem for testing.
func NewTestFS() types.FS {
	return filesystem.NewAferoFS(afero.NewMemMapFs())
}

// WriteFile writes a file through fs, failing the test on error.
func WriteFile(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}

// MkdirAll creates a directory tree through fs, failing the test on error.
func MkdirAll(t *testing.T, fs types.FS, path string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(path, 0755))
}
