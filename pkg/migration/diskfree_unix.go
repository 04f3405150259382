//go:build !windows

package migration

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// diskFree returns the free bytes on the volume holding path, walking
// up to the nearest existing ancestor when path does not exist yet.
func diskFree(path string) (int64, error) {
	probe := path
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(probe, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
