// Package manifest is the durable record of every link the subsystem
// has created. It is the single source of truth for link health and the
// only state that survives a process restart.
package manifest

import (
	"time"

	"github.com/arthur-debert/unisync/pkg/types"
)

// Version is the current manifest document version. Documents written
// by a newer build are refused rather than reinterpreted.
const Version = 1

// LinkedResource is one source→links relationship. Keyed by
// (ResourceType, SourcePath); re-linking the same source updates the
// existing entry instead of duplicating it.
type LinkedResource struct {
	ResourceType types.ResourceType `json:"resource_type"`
	SourcePath   string             `json:"source_path"`
	LinkPaths    []string           `json:"link_paths"`
	ContentHash  string             `json:"content_hash,omitempty"`
	LinkType     types.LinkType     `json:"link_type"`
	Status       types.LinkStatus   `json:"status"`
	ModifiedAt   time.Time          `json:"modified_at"`
}

// Key returns the unique manifest key of this entry.
func (r LinkedResource) Key() string {
	return string(r.ResourceType) + "\x00" + r.SourcePath
}

// Degraded reports whether this entry is backed by a copy fallback
// rather than a real link.
func (r LinkedResource) Degraded() bool {
	return r.LinkType.Degraded()
}

// document is the on-disk JSON layout.
type document struct {
	Version   int              `json:"version"`
	UpdatedAt time.Time        `json:"updated_at"`
	Resources []LinkedResource `json:"resources"`
}
