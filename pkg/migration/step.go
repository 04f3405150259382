// Package migration transitions a pair of separate installations into
// unified storage through a strictly sequential, reversible step
// machine. Every forward step is paired with a compensating action so
// a failure at any point rolls the filesystem and manifest back to
// their pre-migration state.
package migration

// Step is one stage of the forward path.
type Step string

const (
	StepCheckPrerequisites Step = "check_prerequisites"
	StepCreateSharedFolder Step = "create_shared_folder"
	StepBackupOriginal     Step = "backup_original"
	StepCopyBeatmaps       Step = "copy_beatmaps"
	StepCreateJunctions    Step = "create_junctions"
	StepUpdateManifest     Step = "update_manifest"
	StepVerifyIntegrity    Step = "verify_integrity"
	StepCleanupBackups     Step = "cleanup_backups"
)

// Steps returns the forward path in execution order.
func Steps() []Step {
	return []Step{
		StepCheckPrerequisites,
		StepCreateSharedFolder,
		StepBackupOriginal,
		StepCopyBeatmaps,
		StepCreateJunctions,
		StepUpdateManifest,
		StepVerifyIntegrity,
		StepCleanupBackups,
	}
}

// stepAction pairs a step's forward action with its compensating
// action, so rollback can replay undo logic generically in reverse
// order instead of hand-coding it per failure site.
type stepAction struct {
	step       Step
	run        func(j *journal) error
	compensate func(j *journal) error
}
