package link

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/arthur-debert/unisync/pkg/types"
)

// HashPath fingerprints a file or directory. Files are hashed over
// their content; directories over a recursive listing of entry names
// and sizes, which is cheap enough to run against beatmap libraries
// with thousands of folders.
func HashPath(fsys types.FS, path string) (string, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return "", err
	}

	h := blake3.New()
	if info.IsDir() {
		if err := hashDir(fsys, path, h); err != nil {
			return "", err
		}
	} else {
		data, err := fsys.ReadFile(path)
		if err != nil {
			return "", err
		}
		_, _ = h.Write(data)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashDir(fsys types.FS, dir string, h *blake3.Hasher) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			_, _ = fmt.Fprintf(h, "%s/\n", entry.Name())
			if err := hashDir(fsys, dir+"/"+entry.Name(), h); err != nil {
				return err
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(h, "%s:%d\n", entry.Name(), info.Size())
	}

	return nil
}
