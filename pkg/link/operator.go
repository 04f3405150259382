package link

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// Options tunes the creation cascade.
type Options struct {
	// PreferJunctions tries a directory junction before a symbolic
	// link for directory targets.
	PreferJunctions bool

	// CopyFallback permits a full content copy when no real link
	// strategy succeeds for a non-privilege reason.
	CopyFallback bool

	// CopyOnElevation permits the copy fallback even when the failure
	// was a privilege shortfall. Off by default: privilege failures
	// surface as ELEVATION_REQUIRED so the operator can decide, and
	// only an explicit decline re-runs with this set.
	CopyOnElevation bool
}

// Outcome describes how a link was materialized.
type Outcome struct {
	Type types.LinkType

	// Degraded is set when the destination is a content copy rather
	// than a real link; such entries must never be reported Active
	// without a matching fingerprint.
	Degraded bool

	// AlreadyLinked is set when the destination already resolved to
	// the source and nothing was changed.
	AlreadyLinked bool
}

// Operator creates, verifies and removes individual links, honoring the
// probed capability monotonically: JunctionsOnly never attempts a
// symbolic link and None attempts no real link at all.
type Operator struct {
	fs         types.FS
	capability types.LinkCapability
	opts       Options
	logger     zerolog.Logger
}

// NewOperator creates an Operator bound to a probed capability.
func NewOperator(fsys types.FS, capability types.LinkCapability, opts Options) *Operator {
	return &Operator{
		fs:         fsys,
		capability: capability,
		opts:       opts,
		logger:     logging.GetLogger("link.operator"),
	}
}

// Capability returns the capability the operator was built with.
func (o *Operator) Capability() types.LinkCapability {
	return o.capability
}

// FS returns the filesystem the operator works through.
func (o *Operator) FS() types.FS {
	return o.fs
}

// attemptJunction reports whether the cascade should try a junction for
// a target. Junctions are tried when preferred, and always under
// JunctionsOnly, where they are the only real link strategy left.
func (o *Operator) attemptJunction(isDir bool) bool {
	if !isDir {
		return false
	}
	return o.opts.PreferJunctions || o.capability == types.CapabilityJunctionsOnly
}

// CreateLink makes dest resolve to source using the strongest strategy
// the capability allows. An existing link already pointing at source is
// accepted unchanged; a link pointing elsewhere is replaced.
func (o *Operator) CreateLink(source, dest string) (Outcome, error) {
	srcInfo, err := o.fs.Stat(source)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, errors.ErrLinkCreation, "source is not readable").
			WithDetail("source", source).WithDetail("link", dest)
	}

	if existing, err := o.fs.Lstat(dest); err == nil {
		if existing.Mode()&os.ModeSymlink != 0 {
			target, err := o.fs.Readlink(dest)
			if err == nil && target == source {
				o.logger.Trace().Str("link", dest).Msg("Link already points to source")
				return Outcome{Type: types.LinkSymlink, AlreadyLinked: true}, nil
			}
			if err := o.fs.Remove(dest); err != nil {
				return Outcome{}, errors.Wrapf(err, errors.ErrLinkCreation, "cannot replace wrong-target link").
					WithDetail("source", source).WithDetail("link", dest)
			}
			o.logger.Debug().Str("link", dest).Str("oldTarget", target).Msg("Replaced wrong-target link")
		} else {
			return Outcome{}, errors.Newf(errors.ErrLinkCreation, "destination %s exists and is not a link", dest).
				WithDetail("source", source).WithDetail("link", dest)
		}
	}

	if err := o.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Outcome{}, errors.Wrapf(err, errors.ErrDirCreate, "cannot create parent of %s", dest)
	}

	isDir := srcInfo.IsDir()
	var privShortfall error

	if o.capability != types.CapabilityNone {
		if o.attemptJunction(isDir) {
			if err := createJunction(source, dest); err == nil {
				o.logger.Info().Str("source", source).Str("link", dest).Msg("Created junction")
				return Outcome{Type: types.LinkJunction}, nil
			} else if junctionsSupported() {
				o.logger.Debug().Err(err).Str("link", dest).Msg("Junction attempt failed")
			}
		}

		if o.capability == types.CapabilityFull {
			if err := o.fs.Symlink(source, dest); err == nil {
				o.logger.Info().Str("source", source).Str("link", dest).Msg("Created symlink")
				return Outcome{Type: types.LinkSymlink}, nil
			} else if isPrivilegeError(err) {
				privShortfall = err
				o.logger.Debug().Err(err).Str("link", dest).Msg("Symlink denied, privilege shortfall")
			} else {
				o.logger.Debug().Err(err).Str("link", dest).Msg("Symlink attempt failed")
			}
		}

		if !isDir && privShortfall == nil {
			if err := hardlink(source, dest); err == nil {
				o.logger.Info().Str("source", source).Str("link", dest).Msg("Created hardlink")
				return Outcome{Type: types.LinkHardlink}, nil
			} else {
				o.logger.Debug().Err(err).Str("link", dest).Msg("Hardlink attempt failed")
			}
		}
	}

	if privShortfall != nil && !o.opts.CopyOnElevation {
		return Outcome{}, errors.Wrap(privShortfall, errors.ErrElevationRequired,
			"creating a link requires elevated privileges").
			WithDetail("source", source).WithDetail("link", dest)
	}

	if !o.opts.CopyFallback && !(privShortfall != nil && o.opts.CopyOnElevation) {
		return Outcome{}, errors.Newf(errors.ErrLinkCreation, "no link strategy succeeded for %s", dest).
			WithDetail("source", source).WithDetail("link", dest)
	}

	if err := CopyTree(o.fs, source, dest, nil); err != nil {
		return Outcome{}, errors.Wrapf(err, errors.ErrLinkCreation, "copy fallback failed").
			WithDetail("source", source).WithDetail("link", dest)
	}
	o.logger.Warn().Str("source", source).Str("link", dest).
		Msg("Fell back to content copy; destination is not a real link")
	return Outcome{Type: types.LinkCopy, Degraded: true}, nil
}

// VerifyLink classifies the health of one link artifact against its
// recorded source and fingerprint. wantHash may be empty, in which case
// stale detection is skipped.
func (o *Operator) VerifyLink(linkPath, source, wantHash string) (types.LinkStatus, error) {
	fi, err := o.fs.Lstat(linkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return types.StatusBroken, nil
		}
		return types.StatusBroken, errors.Wrapf(err, errors.ErrBrokenLink, "cannot inspect %s", linkPath)
	}

	if _, err := o.fs.Stat(source); err != nil {
		return types.StatusBroken, nil
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := o.fs.Readlink(linkPath)
		if err != nil || target != source {
			return types.StatusBroken, nil
		}
		if wantHash != "" {
			got, err := HashPath(o.fs, source)
			if err != nil {
				return types.StatusBroken, nil
			}
			if got != wantHash {
				return types.StatusStale, nil
			}
		}
		return types.StatusActive, nil
	}

	// Junction or copy fallback: the artifact carries its own content,
	// so it must match the current source, not just the recorded
	// fingerprint. A source modified outside the link leaves the copy
	// behind.
	got, err := HashPath(o.fs, linkPath)
	if err != nil {
		return types.StatusBroken, nil
	}
	srcHash, err := HashPath(o.fs, source)
	if err != nil {
		return types.StatusBroken, nil
	}
	if got != srcHash {
		return types.StatusStale, nil
	}
	if wantHash != "" && got != wantHash {
		return types.StatusStale, nil
	}
	return types.StatusActive, nil
}

// RemoveLink deletes only the link artifact at path, never the source
// content it points to. Missing artifacts are not an error so removal
// can be retried.
func (o *Operator) RemoveLink(path string) error {
	fi, err := o.fs.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot inspect %s", path)
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		return o.fs.Remove(path)
	}

	// Copy fallback or junction artifact. The authoritative source
	// lives elsewhere; the artifact is safe to drop wholesale.
	return o.fs.RemoveAll(path)
}
