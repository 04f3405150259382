package config

import (
	"path/filepath"

	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/types"
)

// WriteDefault writes a default config file. Used by the `config init`
// command so operators have a document to edit instead of guessing key
// names.
func WriteDefault(fs types.FS, path string) error {
	if _, err := fs.Stat(path); err == nil {
		return errors.Newf(errors.ErrAlreadyExists, "config file already exists at %s", path)
	}

	data, err := gotoml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to marshal default config")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create config directory")
	}

	if err := fs.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", path)
	}

	return nil
}
