// Package link creates, verifies and removes the filesystem links that
// back unified storage. A probe determines what the current user can
// actually create, and the operator applies a cascading strategy driven
// by that capability.
package link

import (
	"path/filepath"

	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

const (
	probeSourceName = ".unisync-probe-src"
	probeLinkName   = ".unisync-probe-link"
)

// Probe determines empirically what kind of link the current user can
// create in dir. Declared privileges are unreliable, so a throwaway
// link is created and removed again; no residue is left behind on any
// path. Callers should re-probe once per session rather than cache the
// result, since privileges can change between runs.
func Probe(fsys types.FS, dir string) types.LinkCapability {
	logger := logging.GetLogger("link.probe")

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		logger.Debug().Err(err).Str("dir", dir).Msg("Probe directory is not writable")
		return types.CapabilityNone
	}

	src := filepath.Join(dir, probeSourceName)
	lnk := filepath.Join(dir, probeLinkName)
	defer func() {
		_ = fsys.Remove(lnk)
		_ = fsys.Remove(src)
	}()

	if err := fsys.WriteFile(src, []byte("probe"), 0644); err != nil {
		logger.Debug().Err(err).Str("dir", dir).Msg("Cannot write probe file")
		return types.CapabilityNone
	}

	if err := fsys.Symlink(src, lnk); err == nil {
		return types.CapabilityFull
	} else {
		logger.Debug().Err(err).Str("dir", dir).Msg("Symbolic link denied")
	}

	if junctionsSupported() {
		return types.CapabilityJunctionsOnly
	}
	return types.CapabilityNone
}
