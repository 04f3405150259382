package commands

import (
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// Sync runs one manual sync pass across all configured resources.
func Sync(s *Session) (types.SyncResult, error) {
	logger := logging.GetLogger("commands.sync")
	defer logging.LogOperationStart(logger, "sync")()

	return s.Engine.SyncNow(types.TriggerManual)
}

// Verify re-derives link health for every manifest entry without
// changing anything.
func Verify(s *Session) (types.HealthReport, error) {
	logger := logging.GetLogger("commands.verify")
	defer logging.LogOperationStart(logger, "verify")()

	return s.Engine.VerifyAll()
}
