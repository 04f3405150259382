package commands

import (
	"github.com/arthur-debert/unisync/pkg/config"
	"github.com/arthur-debert/unisync/pkg/filesystem"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/paths"
	"github.com/arthur-debert/unisync/pkg/types"
)

// InitConfigOptions holds the configuration for the InitConfig command.
type InitConfigOptions struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// FileSystem to use. Defaults to the OS filesystem.
	FileSystem types.FS
}

// InitConfig writes a default config file and returns its path. It does
// not require a Session because it must work before any osu!
// installation is configured.
func InitConfig(opts InitConfigOptions) (string, error) {
	logger := logging.GetLogger("commands.initconfig")
	defer logging.LogOperationStart(logger, "config init")()

	fs := opts.FileSystem
	if fs == nil {
		fs = filesystem.NewOS()
	}

	path := opts.ConfigPath
	if path == "" {
		p, err := paths.New()
		if err != nil {
			return "", err
		}
		path = p.ConfigFilePath()
	}

	if err := config.WriteDefault(fs, path); err != nil {
		return "", err
	}

	logger.Info().Str("path", path).Msg("Config file created")
	return path, nil
}
