//go:build windows

package migration

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"
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

	probePtr, err := windows.UTF16PtrFromString(probe)
	if err != nil {
		return 0, err
	}

	var freeToCaller, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(probePtr, &freeToCaller, &total, &free); err != nil {
		return 0, err
	}
	return int64(freeToCaller), nil
}
