package config

import (
	"os"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/unisync/pkg/errors"
)

// envKeys maps recognized environment variables to config keys. Vars
// not listed here (UNISYNC_CONFIG_DIR and friends) belong to pkg/paths
// and must not leak into the config document.
var envKeys = map[string]string{
	"UNISYNC_MODE":           "mode",
	"UNISYNC_SHARED_PATH":    "shared_path",
	"UNISYNC_USE_JUNCTIONS":  "use_junctions",
	"UNISYNC_TRACK_MANIFEST": "track_manifest",
}

// Load builds the effective configuration: defaults, then the TOML
// file at path if it exists, then environment overrides. The result is
// validated before it is returned.
func Load(path string) (UnifiedConfig, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	def := Default()
	defaults := map[string]interface{}{
		"mode":                           string(def.Mode),
		"use_junctions":                  def.UseJunctions,
		"track_manifest":                 def.TrackManifest,
		"triggers.manual":                def.Triggers.Manual,
		"triggers.watcher_interval_secs": def.Triggers.WatcherIntervalSecs,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return UnifiedConfig{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Config file, if present
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return UnifiedConfig{}, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path)
			}
		}
	}

	// 3. Environment overrides
	if err := k.Load(env.Provider("UNISYNC_", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return UnifiedConfig{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg UnifiedConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return UnifiedConfig{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return UnifiedConfig{}, err
	}

	return cfg, nil
}
