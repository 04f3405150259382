// Package config defines the unified storage configuration and its
// loading pipeline: built-in defaults, a TOML file, then environment
// overrides, each layer winning over the previous one.
package config

import (
	"time"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/types"
)

// Triggers controls which sources may start a sync pass.
type Triggers struct {
	FileWatcher         bool `koanf:"file_watcher" toml:"file_watcher"`
	OnGameLaunch        bool `koanf:"on_game_launch" toml:"on_game_launch"`
	Manual              bool `koanf:"manual" toml:"manual"`
	WatcherIntervalSecs int  `koanf:"watcher_interval_secs" toml:"watcher_interval_secs"`
}

// UnifiedConfig is the process-wide configuration of the subsystem.
// Loaded once at startup and only replaced by explicit reconfiguration.
type UnifiedConfig struct {
	Mode            types.Mode           `koanf:"mode" toml:"mode"`
	SharedPath      string               `koanf:"shared_path" toml:"shared_path"`
	SharedResources []types.ResourceType `koanf:"shared_resources" toml:"shared_resources"`
	UseJunctions    bool                 `koanf:"use_junctions" toml:"use_junctions"`
	TrackManifest   bool                 `koanf:"track_manifest" toml:"track_manifest"`
	Triggers        Triggers             `koanf:"triggers" toml:"triggers"`
}

// Default returns the configuration used when no file or environment
// override is present. The subsystem starts disabled.
func Default() UnifiedConfig {
	return UnifiedConfig{
		Mode:          types.ModeDisabled,
		UseJunctions:  true,
		TrackManifest: true,
		Triggers: Triggers{
			Manual:              true,
			WatcherIntervalSecs: 5,
		},
	}
}

// Validate checks mode-specific preconditions. Errors here are startup
// validation failures, never runtime ones.
func (c *UnifiedConfig) Validate() error {
	if _, err := types.ParseMode(string(c.Mode)); err != nil {
		return errors.Wrapf(err, errors.ErrConfigValid, "invalid mode")
	}

	seen := make(map[types.ResourceType]bool)
	for _, rt := range c.SharedResources {
		if _, err := types.ParseResourceType(string(rt)); err != nil {
			return errors.Wrapf(err, errors.ErrConfigValid, "invalid shared resource")
		}
		if seen[rt] {
			return errors.Newf(errors.ErrConfigValid, "duplicate shared resource %q", rt)
		}
		seen[rt] = true
	}

	if c.Mode.Enabled() && len(c.SharedResources) == 0 {
		return errors.Newf(errors.ErrConfigValid, "mode %q requires at least one shared resource", c.Mode)
	}

	if c.Mode == types.ModeTrueUnified && c.SharedPath == "" {
		return errors.New(errors.ErrConfigValid, "mode true_unified requires shared_path to be set")
	}

	if c.Triggers.WatcherIntervalSecs < 1 {
		return errors.Newf(errors.ErrConfigValid, "watcher_interval_secs must be >= 1, got %d", c.Triggers.WatcherIntervalSecs)
	}

	return nil
}

// Shares reports whether a resource type is configured for sharing.
func (c *UnifiedConfig) Shares(rt types.ResourceType) bool {
	for _, r := range c.SharedResources {
		if r == rt {
			return true
		}
	}
	return false
}

// WatcherInterval returns the debounce quiet window as a duration.
func (c *UnifiedConfig) WatcherInterval() time.Duration {
	return time.Duration(c.Triggers.WatcherIntervalSecs) * time.Second
}
