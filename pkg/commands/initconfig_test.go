package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/unisync/pkg/commands"
	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/testutil"
)

func TestInitConfigWritesFile(t *testing.T) {
	fs := testutil.NewTestFS()

	path, err := commands.InitConfig(commands.InitConfigOptions{
		ConfigPath: "/home/player/.config/unisync/config.toml",
		FileSystem: fs,
	})
	require.NoError(t, err)
	assert.Equal(t, "/home/player/.config/unisync/config.toml", path)

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode")
}

func TestInitConfigRefusesExistingFile(t *testing.T) {
	fs := testutil.NewTestFS()
	opts := commands.InitConfigOptions{
		ConfigPath: "/home/player/.config/unisync/config.toml",
		FileSystem: fs,
	}

	_, err := commands.InitConfig(opts)
	require.NoError(t, err)

	_, err = commands.InitConfig(opts)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}
