// Package paths provides centralized path handling for unisync.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/unisync/pkg/errors"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for unisync
	EnvConfigDir = "UNISYNC_CONFIG_DIR"

	// EnvDataDir overrides the XDG data directory for unisync
	EnvDataDir = "UNISYNC_DATA_DIR"

	// EnvStableRoot overrides the detected stable installation root
	EnvStableRoot = "UNISYNC_STABLE_ROOT"

	// EnvLazerRoot overrides the detected lazer installation root
	EnvLazerRoot = "UNISYNC_LAZER_ROOT"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
// IMPORTANT: These constants define unisync's durable on-disk layout
// and are NOT user-configurable. They must remain consistent across
// installations so the manifest and migration journal survive upgrades.
const (
	// UnisyncDirName is the directory name for unisync-specific files
	UnisyncDirName = "unisync"

	// ManifestFileName is the name of the durable link manifest
	ManifestFileName = "unified-manifest.json"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "config.toml"

	// BackupDirName is the subdirectory for migration backups
	BackupDirName = "backups"

	// JournalFileName is the migration journal written before each
	// destructive step so a crashed migration can be rolled back
	JournalFileName = "migration-journal.json"

	// LogFileName is the name of the log file
	LogFileName = "unisync.log"
)

// Paths provides centralized path management for unisync
type Paths interface {
	ConfigDir() string
	DataDir() string
	StateDir() string
	ManifestPath() string
	ConfigFilePath() string
	BackupDir() string
	JournalPath() string
	LogFilePath() string
}

type paths struct {
	xdgConfig string
	xdgData   string
	xdgState  string
}

// New creates a new Paths instance, respecting environment overrides.
func New() (Paths, error) {
	p := &paths{}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = ExpandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, UnisyncDirName)
	}

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = ExpandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, UnisyncDirName)
	}

	// XDG doesn't provide StateHome on all versions, so check manually
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, UnisyncDirName)
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get home directory")
		}
		p.xdgState = filepath.Join(homeDir, ".local", "state", UnisyncDirName)
	}

	return p, nil
}

// ConfigDir returns the XDG config directory for unisync
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// DataDir returns the XDG data directory for unisync
func (p *paths) DataDir() string {
	return p.xdgData
}

// StateDir returns the XDG state directory for unisync
func (p *paths) StateDir() string {
	return p.xdgState
}

// ManifestPath returns the path of the durable link manifest
func (p *paths) ManifestPath() string {
	return filepath.Join(p.xdgConfig, ManifestFileName)
}

// ConfigFilePath returns the path of the user configuration file
func (p *paths) ConfigFilePath() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

// BackupDir returns the directory holding migration backups
func (p *paths) BackupDir() string {
	return filepath.Join(p.xdgData, BackupDirName)
}

// JournalPath returns the path of the migration journal
func (p *paths) JournalPath() string {
	return filepath.Join(p.BackupDir(), JournalFileName)
}

// LogFilePath returns the path of the unisync log file
func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// ExpandHome expands ~ to the home directory
func ExpandHome(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = os.Getenv(EnvHome)
			if homeDir == "" {
				return path
			}
		}

		if len(path) == 1 {
			return homeDir
		}

		if path[1] == '/' || path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:])
		}

		// ~something (not the user's home)
		return path
	}

	return path
}

// NormalizePath expands home, makes the path absolute and cleans it.
func NormalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty path")
	}

	expanded := ExpandHome(path)

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path")
	}

	return filepath.Clean(abs), nil
}
