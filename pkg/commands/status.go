package commands

import (
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/types"
)

// StatusResult is everything the status dashboard needs to render.
type StatusResult struct {
	Mode       types.Mode
	SharedPath string
	Capability types.LinkCapability
	Health     types.HealthReport
	Entries    []manifest.LinkedResource
	Running    map[types.Game]bool
}

// Status verifies every manifest entry and assembles the dashboard
// view: per-entry health, aggregate counts and game presence.
func Status(s *Session) (*StatusResult, error) {
	logger := logging.GetLogger("commands.status")
	defer logging.LogOperationStart(logger, "status")()

	health, err := s.Engine.VerifyAll()
	if err != nil {
		return nil, err
	}

	running := make(map[types.Game]bool, 2)
	for _, g := range []types.Game{types.GameStable, types.GameLazer} {
		running[g] = s.detector.IsRunning(g)
	}

	return &StatusResult{
		Mode:       s.Config.Mode,
		SharedPath: s.Config.SharedPath,
		Capability: s.Engine.Capability(),
		Health:     health,
		Entries:    s.Engine.Entries(),
		Running:    running,
	}, nil
}
