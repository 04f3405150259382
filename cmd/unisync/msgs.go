package main

// Short messages (one-liners)
const (
	MsgRootShort = "Unified storage for osu! stable and lazer"
	MsgRootLong  = `unisync keeps the beatmaps, skins and other resources of an osu!
stable installation and an osu! lazer installation in one place, using
filesystem links so both games see the same content without doubling
disk usage.`

	// Command descriptions
	MsgStatusShort  = "Show mode, link health and game presence"
	MsgSyncShort    = "Run one sync pass over the configured resources"
	MsgVerifyShort  = "Check every tracked link without changing anything"
	MsgRepairShort  = "Recreate broken and pending links"
	MsgMigrateShort = "Move resources into the shared folder and link both games to it"
	MsgMigrateLong  = `Migrate moves the configured resources out of the stable installation
into the shared folder, then replaces the original directories with
links. The migration is journaled: any failure rolls the filesystem
back to the state before the run.`
	MsgRollbackShort   = "Undo a previous migration from its journal"
	MsgWatchShort      = "Run in the foreground, syncing on file changes and game launches"
	MsgConfigShort     = "Manage the unisync configuration"
	MsgConfigInitShort = "Write a default config file"
	MsgVersionShort    = "Print version information"

	// Notices
	MsgRepairHint  = "Run 'unisync repair' to fix broken links"
	MsgWatchNotice = "Watching for changes. Press Ctrl+C to stop."

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig     = "Config file (default is $XDG_CONFIG_HOME/unisync/config.toml)"
	MsgFlagAdoptStale = "Accept externally modified content as the new truth"
	MsgFlagPlan       = "Preview the migration without touching the filesystem"
)
