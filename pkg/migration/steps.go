package migration

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/link"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/types"
)

const manifestSnapshotName = "manifest-snapshot.json"

// checkPrerequisites validates the configuration, the installation
// layout and free disk space before anything is touched. Game gating
// happens in the engine before Run is even called.
func (c *Controller) checkPrerequisites(j *journal) error {
	specs, err := c.resolveSpecs()
	if err != nil {
		return err
	}

	if _, err := c.fs.Stat(c.installs.StableRoot); err != nil {
		return errors.Wrapf(err, errors.ErrNotFound, "stable installation not found at %s", c.installs.StableRoot)
	}

	var required int64
	for _, spec := range specs {
		if spec.copyFrom == "" {
			continue
		}
		size, err := link.DirSize(c.fs, spec.copyFrom)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot size %s", spec.copyFrom)
		}
		required += size
	}
	required = int64(float64(required) * spaceSafetyFactor)
	j.BytesTotal = required

	free, err := diskFree(c.cfg.SharedPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot determine free space for %s", c.cfg.SharedPath)
	}
	if free < required {
		return errors.Newf(errors.ErrInsufficientSpace,
			"migration needs %d bytes but only %d are free on the shared volume", required, free)
	}

	return nil
}

// createSharedFolder builds the shared tree, recording only the
// directories this migration actually created so rollback never deletes
// a pre-existing folder.
func (c *Controller) createSharedFolder(j *journal) error {
	specs, err := c.resolveSpecs()
	if err != nil {
		return err
	}

	dirs := append([]string{c.cfg.SharedPath}, make([]string, 0, len(specs))...)
	for _, spec := range specs {
		dirs = append(dirs, spec.source)
	}

	for _, dir := range dirs {
		if _, err := c.fs.Stat(dir); err == nil {
			continue
		}
		if err := c.fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "cannot create shared folder %s", dir)
		}
		j.CreatedDirs = append(j.CreatedDirs, dir)
	}
	return nil
}

func (c *Controller) removeSharedFolder(j *journal) error {
	// Reverse creation order so children go before parents.
	for i := len(j.CreatedDirs) - 1; i >= 0; i-- {
		if err := c.fs.RemoveAll(j.CreatedDirs[i]); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// backupOriginal snapshots the manifest into the journal and into a
// standalone file under the backup directory. Content is not backed up
// here; originals survive as renamed directories until CleanupBackups.
func (c *Controller) backupOriginal(j *journal) error {
	j.ManifestSnapshot = c.store.All()

	data, err := json.MarshalIndent(j.ManifestSnapshot, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot marshal manifest snapshot")
	}
	if err := c.fs.MkdirAll(c.backupDir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "cannot create backup directory")
	}
	snapshotPath := filepath.Join(c.backupDir, manifestSnapshotName)
	if err := c.fs.WriteFile(snapshotPath, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write manifest snapshot at %s", snapshotPath)
	}
	return nil
}

func (c *Controller) restoreManifest(j *journal) error {
	snapshot := j.ManifestSnapshot
	if snapshot == nil {
		snapshot = []manifest.LinkedResource{}
	}
	return c.store.ReplaceAll(snapshot)
}

// copyContent bulk-copies the authoritative content into the shared
// tree. The originals are left untouched; they are renamed aside only
// when the links take their place.
func (c *Controller) copyContent(j *journal) error {
	specs, err := c.resolveSpecs()
	if err != nil {
		return err
	}

	for _, spec := range specs {
		if spec.copyFrom == "" {
			continue
		}
		if _, err := c.fs.Stat(spec.copyFrom); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", spec.copyFrom)
		}

		err := link.CopyTree(c.fs, spec.copyFrom, spec.source, func(n int64) {
			c.bytesDone += n
			c.report(StepCopyBeatmaps, 3, len(Steps()), j.BytesTotal)
		})
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "copying %s into shared tree failed", spec.copyFrom)
		}
		j.CopiedDirs = append(j.CopiedDirs, spec.source)
	}
	return nil
}

func (c *Controller) removeCopiedContent(j *journal) error {
	for _, dir := range j.CopiedDirs {
		if err := c.fs.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// createLinks renames each original folder aside and puts a link to the
// shared tree in its place.
func (c *Controller) createLinks(j *journal) error {
	specs, err := c.resolveSpecs()
	if err != nil {
		return err
	}

	for _, spec := range specs {
		for _, lp := range spec.links {
			if info, err := c.fs.Lstat(lp); err == nil && info.Mode()&os.ModeSymlink == 0 {
				backup := lp + backupSuffix
				if err := c.fs.Rename(lp, backup); err != nil {
					return errors.Wrapf(err, errors.ErrFileAccess, "cannot move %s aside", lp)
				}
				j.MovedDirs = append(j.MovedDirs, moveRecord{From: lp, To: backup})
			}

			outcome, err := c.op.CreateLink(spec.source, lp)
			if err != nil {
				return err
			}
			j.CreatedLinks = append(j.CreatedLinks, linkRecord{Path: lp, Type: outcome.Type})
		}
	}
	return nil
}

func (c *Controller) removeLinks(j *journal) error {
	moved := make(map[string]string, len(j.MovedDirs))
	for _, rec := range j.MovedDirs {
		moved[rec.From] = rec.To
	}

	for _, rec := range j.CreatedLinks {
		fi, err := c.fs.Lstat(rec.Path)
		if err != nil {
			continue
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			// Copy fallback artifact, unless an earlier rollback
			// attempt already put the original back in its place.
			if backup, ok := moved[rec.Path]; ok {
				if _, err := c.fs.Stat(backup); err != nil {
					continue
				}
			}
		}
		if err := c.op.RemoveLink(rec.Path); err != nil {
			return err
		}
	}
	for i := len(j.MovedDirs) - 1; i >= 0; i-- {
		rec := j.MovedDirs[i]
		if _, err := c.fs.Stat(rec.To); err != nil {
			// Backup already consumed by an earlier rollback attempt.
			continue
		}
		if _, err := c.fs.Lstat(rec.From); err == nil {
			// Leftover artifact still in the way.
			if err := c.fs.RemoveAll(rec.From); err != nil {
				return err
			}
		}
		if err := c.fs.Rename(rec.To, rec.From); err != nil {
			return err
		}
	}
	return nil
}

// updateManifest records one entry per shared resource, fingerprinting
// the shared content at link time.
func (c *Controller) updateManifest(j *journal) error {
	specs, err := c.resolveSpecs()
	if err != nil {
		return err
	}

	linkTypes := make(map[string]types.LinkType, len(j.CreatedLinks))
	for _, rec := range j.CreatedLinks {
		linkTypes[rec.Path] = rec.Type
	}

	for _, spec := range specs {
		hash, err := link.HashPath(c.fs, spec.source)
		if err != nil {
			c.logger.Warn().Err(err).Str("source", spec.source).Msg("Cannot fingerprint shared content")
			hash = ""
		}

		entry := manifest.LinkedResource{
			ResourceType: spec.resource,
			SourcePath:   spec.source,
			LinkPaths:    spec.links,
			ContentHash:  hash,
			LinkType:     entryLinkType(spec.links, linkTypes),
			Status:       types.StatusActive,
		}
		if err := c.store.Upsert(entry); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) revertManifest(j *journal) error {
	specs, err := c.resolveSpecs()
	if err != nil {
		return err
	}
	for _, spec := range specs {
		if err := c.store.Remove(spec.resource, spec.source); err != nil {
			return err
		}
	}
	return nil
}

// entryLinkType reports the weakest strategy across an entry's links: a
// single copy fallback marks the whole entry degraded.
func entryLinkType(links []string, byPath map[string]types.LinkType) types.LinkType {
	result := types.LinkSymlink
	seen := false
	for _, lp := range links {
		lt, ok := byPath[lp]
		if !ok {
			continue
		}
		if !seen {
			result = lt
			seen = true
		}
		if lt == types.LinkCopy {
			return types.LinkCopy
		}
	}
	return result
}

// verifyIntegrity re-resolves every manifest entry. Any broken link
// fails the migration so rollback restores the originals.
func (c *Controller) verifyIntegrity(j *journal) error {
	report := manifest.VerifyAll(c.store, c.op)
	if report.Broken > 0 {
		return errors.Newf(errors.ErrMigrationFailed,
			"integrity check found %d broken links", report.Broken).
			WithDetail("broken_paths", report.BrokenPaths)
	}
	return nil
}

// cleanupBackups drops the renamed originals and the journal. Failures
// here are warnings, not step failures: the migration itself has
// already succeeded and rolling it back over a leftover backup would
// destroy a working setup.
func (c *Controller) cleanupBackups(j *journal) error {
	for _, rec := range j.MovedDirs {
		if err := c.fs.RemoveAll(rec.To); err != nil && !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("path", rec.To).Msg("Could not remove backup directory")
		}
	}
	snapshotPath := filepath.Join(c.backupDir, manifestSnapshotName)
	if err := c.fs.Remove(snapshotPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn().Err(err).Str("path", snapshotPath).Msg("Could not remove manifest snapshot")
	}
	if err := c.fs.Remove(c.journalPath); err != nil && !os.IsNotExist(err) {
		c.logger.Warn().Err(err).Str("path", c.journalPath).Msg("Could not remove migration journal")
	}
	return nil
}
