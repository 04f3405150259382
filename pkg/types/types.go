// Package types holds the shared vocabulary of the unified storage
// subsystem: operating modes, resource kinds, link classifications and
// the filesystem interface everything else is written against.
package types

import "fmt"

// Mode selects which installation is authoritative for shared content.
type Mode string

const (
	// ModeDisabled leaves both installations untouched.
	ModeDisabled Mode = "disabled"

	// ModeStableMaster keeps stable authoritative; lazer receives
	// content through its own import pipeline.
	ModeStableMaster Mode = "stable_master"

	// ModeLazerMaster keeps lazer authoritative; stable's folders
	// become links into lazer's extracted content.
	ModeLazerMaster Mode = "lazer_master"

	// ModeTrueUnified moves content into a new shared tree and links
	// both installations into it.
	ModeTrueUnified Mode = "true_unified"
)

// Enabled reports whether the mode performs any linking at all.
func (m Mode) Enabled() bool {
	return m != ModeDisabled && m != ""
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDisabled, ModeStableMaster, ModeLazerMaster, ModeTrueUnified:
		return Mode(s), nil
	}
	return ModeDisabled, fmt.Errorf("unknown mode %q", s)
}

// ResourceType identifies one of the shareable content categories.
type ResourceType string

const (
	ResourceBeatmaps    ResourceType = "beatmaps"
	ResourceSkins       ResourceType = "skins"
	ResourceReplays     ResourceType = "replays"
	ResourceScreenshots ResourceType = "screenshots"
	ResourceExports     ResourceType = "exports"
	ResourceBackgrounds ResourceType = "backgrounds"
)

// AllResourceTypes returns every shareable category in a stable order.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceBeatmaps,
		ResourceSkins,
		ResourceReplays,
		ResourceScreenshots,
		ResourceExports,
		ResourceBackgrounds,
	}
}

// ParseResourceType converts a configuration string into a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	switch ResourceType(s) {
	case ResourceBeatmaps, ResourceSkins, ResourceReplays,
		ResourceScreenshots, ResourceExports, ResourceBackgrounds:
		return ResourceType(s), nil
	}
	return "", fmt.Errorf("unknown resource type %q", s)
}

// StableFolder returns the folder name the stable installation uses for
// this resource. Beatmaps live under "Songs"; everything else matches
// the capitalized resource name.
func (r ResourceType) StableFolder() string {
	switch r {
	case ResourceBeatmaps:
		return "Songs"
	case ResourceSkins:
		return "Skins"
	case ResourceReplays:
		return "Replays"
	case ResourceScreenshots:
		return "Screenshots"
	case ResourceExports:
		return "Exports"
	case ResourceBackgrounds:
		return "Backgrounds"
	}
	return string(r)
}

// SharedFolder returns the subdirectory used for this resource inside a
// unified shared root.
func (r ResourceType) SharedFolder() string {
	return string(r)
}

// LinkCapability is what the probe determined the current user can
// create in a given directory. Never persisted; privileges change
// between runs.
type LinkCapability string

const (
	// CapabilityFull means true symbolic links work.
	CapabilityFull LinkCapability = "full"

	// CapabilityJunctionsOnly means directory junctions work but
	// symbolic links are denied.
	CapabilityJunctionsOnly LinkCapability = "junctions_only"

	// CapabilityNone means no real link of any kind can be created.
	CapabilityNone LinkCapability = "none"
)

// LinkStatus classifies the health of a recorded link.
type LinkStatus string

const (
	// StatusActive means every link path resolves to the source.
	StatusActive LinkStatus = "active"

	// StatusBroken means the link or its target is missing.
	StatusBroken LinkStatus = "broken"

	// StatusStale means the target exists but its content no longer
	// matches the recorded fingerprint.
	StatusStale LinkStatus = "stale"

	// StatusPending means the link has not been created yet.
	StatusPending LinkStatus = "pending"
)

// LinkType records which strategy of the creation cascade succeeded.
type LinkType string

const (
	LinkJunction LinkType = "junction"
	LinkSymlink  LinkType = "symlink"
	LinkHardlink LinkType = "hardlink"
	LinkCopy     LinkType = "copy"
)

// Degraded reports whether this link type breaks the single source of
// truth invariant. A copy fallback is not a real link.
func (t LinkType) Degraded() bool {
	return t == LinkCopy
}

// Game identifies one of the two installations.
type Game string

const (
	GameStable Game = "stable"
	GameLazer  Game = "lazer"
)

// Trigger records what caused a sync to run. All triggers converge on
// the same sync path; the value is only for logging and results.
type Trigger string

const (
	TriggerManual     Trigger = "manual"
	TriggerWatcher    Trigger = "watcher"
	TriggerGameLaunch Trigger = "game_launch"
)

// EventKind classifies a coalesced filesystem notification.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventDeleted  EventKind = "deleted"
	EventRenamed  EventKind = "renamed"
)
