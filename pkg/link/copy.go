package link

import (
	"path/filepath"

	"github.com/arthur-debert/unisync/pkg/types"
)

// CopyTree copies a file or directory tree from src to dst. onBytes is
// invoked with the size of each copied file; it may be nil. Used both
// as the operator's degraded fallback and as the bulk content copy of
// a migration.
func CopyTree(fsys types.FS, src, dst string, onBytes func(int64)) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		data, err := fsys.ReadFile(src)
		if err != nil {
			return err
		}
		if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := fsys.WriteFile(dst, data, info.Mode().Perm()); err != nil {
			return err
		}
		if onBytes != nil {
			onBytes(int64(len(data)))
		}
		return nil
	}

	if err := fsys.MkdirAll(dst, 0755); err != nil {
		return err
	}
	entries, err := fsys.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := CopyTree(fsys, filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()), onBytes); err != nil {
			return err
		}
	}
	return nil
}

// DirSize returns the total size in bytes of all files under path.
func DirSize(fsys types.FS, path string) (int64, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		sub, err := DirSize(fsys, filepath.Join(path, entry.Name()))
		if err != nil {
			return 0, err
		}
		total += sub
	}
	return total, nil
}
