package commands

import (
	"github.com/arthur-debert/unisync/pkg/engine"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// RepairOptions contains options for the repair command.
type RepairOptions struct {
	// AdoptStale accepts externally modified content as the new truth
	// instead of just warning about it.
	AdoptStale bool
}

// Repair recreates Broken and Pending links and reports the health
// after the pass.
func Repair(s *Session, opts RepairOptions) (types.HealthReport, error) {
	logger := logging.GetLogger("commands.repair")
	defer logging.LogOperationStart(logger, "repair")()

	return s.Engine.Repair(engine.RepairOptions{AdoptStale: opts.AdoptStale})
}
