package types

import "time"

// HealthReport is the aggregate result of verifying every manifest
// entry. BrokenPaths lists the link paths that failed resolution so the
// operator can act on them.
type HealthReport struct {
	Active      int      `json:"active"`
	Broken      int      `json:"broken"`
	Stale       int      `json:"stale"`
	Pending     int      `json:"pending"`
	BrokenPaths []string `json:"broken_paths,omitempty"`
	StalePaths  []string `json:"stale_paths,omitempty"`
}

// Total returns the number of entries the report covers.
func (r HealthReport) Total() int {
	return r.Active + r.Broken + r.Stale + r.Pending
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Trigger          Trigger        `json:"trigger"`
	ChangedResources []ResourceType `json:"changed_resources"`
	LinksCreated     int            `json:"links_created"`
	LinksRepaired    int            `json:"links_repaired"`
	Degraded         int            `json:"degraded"`
	StartedAt        time.Time      `json:"started_at"`
	Duration         time.Duration  `json:"duration"`
}

// MigrationProgress reports forward progress of a running migration.
type MigrationProgress struct {
	Step       string  `json:"step"`
	StepIndex  int     `json:"step_index"`
	StepCount  int     `json:"step_count"`
	Percent    float64 `json:"percent"`
	BytesDone  int64   `json:"bytes_done"`
	BytesTotal int64   `json:"bytes_total"`
}

// EngineEventKind discriminates events emitted by the engine.
type EngineEventKind string

const (
	EventSyncCompleted      EngineEventKind = "sync_completed"
	EventLinkHealth         EngineEventKind = "link_health"
	EventMigrationProgress  EngineEventKind = "migration_progress"
	EventMigrationFailed    EngineEventKind = "migration_failed"
	EventGameRunningBlocked EngineEventKind = "game_running_blocked"
)

// EngineEvent is the outbound message type of the engine. Only the
// fields relevant to Kind are populated.
type EngineEvent struct {
	Kind      EngineEventKind   `json:"kind"`
	Sync      SyncResult        `json:"sync,omitempty"`
	Health    HealthReport      `json:"health,omitempty"`
	Migration MigrationProgress `json:"migration,omitempty"`
	Game      Game              `json:"game,omitempty"`
	Message   string            `json:"message,omitempty"`
}
