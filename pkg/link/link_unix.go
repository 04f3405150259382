//go:build !windows

package link

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

var errJunctionsUnsupported = errors.New("directory junctions are not supported on this platform")

func junctionsSupported() bool {
	return false
}

func createJunction(source, dest string) error {
	return errJunctionsUnsupported
}

func hardlink(source, dest string) error {
	return os.Link(source, dest)
}

// isPrivilegeError reports whether a link creation failure was caused
// by missing privileges rather than a structural problem.
func isPrivilegeError(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	return errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}
