// Package commands implements the operations behind the unisync CLI.
// Each command takes an options struct, builds on an initialized
// engine session and returns a plain result the display layer renders.
package commands

import (
	"time"

	"github.com/arthur-debert/unisync/pkg/config"
	"github.com/arthur-debert/unisync/pkg/engine"
	"github.com/arthur-debert/unisync/pkg/filesystem"
	"github.com/arthur-debert/unisync/pkg/gamedetect"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/paths"
	"github.com/arthur-debert/unisync/pkg/types"
)

// detectorPollInterval is how often CLI sessions refresh game presence.
const detectorPollInterval = 2 * time.Second

// SessionOptions controls how a CLI session is assembled.
type SessionOptions struct {
	// ConfigPath overrides the default config file location.
	ConfigPath string

	// FileSystem to use (defaults to OS filesystem)
	FileSystem types.FS
}

// Session bundles an initialized engine with the paths and config it
// was built from. One session backs one CLI invocation.
type Session struct {
	Engine   *engine.Engine
	Config   config.UnifiedConfig
	Paths    paths.Paths
	Installs paths.Installs

	detector *gamedetect.Detector
}

// NewSession loads configuration, detects the installations and brings
// up an initialized engine.
func NewSession(opts SessionOptions) (*Session, error) {
	logger := logging.GetLogger("commands")

	if opts.FileSystem == nil {
		opts.FileSystem = filesystem.NewOS()
	}

	p, err := paths.New()
	if err != nil {
		return nil, err
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = p.ConfigFilePath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	installs := paths.DetectInstalls()
	logger.Debug().
		Str("stable", installs.StableRoot).
		Str("lazer", installs.LazerRoot).
		Str("mode", string(cfg.Mode)).
		Msg("Session starting")

	detector := gamedetect.New(detectorPollInterval)
	eng := engine.New(engine.Options{
		FS:       opts.FileSystem,
		Paths:    p,
		Installs: installs,
		Detector: detector,
	})
	if err := eng.Initialize(cfg); err != nil {
		return nil, err
	}

	// One immediate scan so gating has real data even for one-shot
	// commands that never call Serve.
	detector.Start()

	return &Session{
		Engine:   eng,
		Config:   cfg,
		Paths:    p,
		Installs: installs,
		detector: detector,
	}, nil
}

// Close stops the session's background units.
func (s *Session) Close() {
	s.detector.Stop()
}
