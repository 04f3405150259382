package commands

import (
	"context"

	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/migration"
)

// MigratePlan previews what a migration would do without touching the
// filesystem.
func MigratePlan(s *Session) (migration.Plan, error) {
	logger := logging.GetLogger("commands.migrate")
	defer logging.LogOperationStart(logger, "migrate plan")()

	return s.Engine.PlanMigration()
}

// Migrate runs the full forward path, rolling back automatically on
// failure.
func Migrate(ctx context.Context, s *Session) error {
	logger := logging.GetLogger("commands.migrate")
	defer logging.LogOperationStart(logger, "migrate")()

	return s.Engine.StartMigration(ctx)
}

// Rollback undoes a previous migration attempt from its journal.
func Rollback(ctx context.Context, s *Session) error {
	logger := logging.GetLogger("commands.rollback")
	defer logging.LogOperationStart(logger, "rollback")()

	return s.Engine.RollbackMigration(ctx)
}
