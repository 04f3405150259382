package types

import (
	"io/fs"
)

// FS is the filesystem interface required for unisync operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error

	// For testing, Lstat can fall back to Stat
	Lstat(name string) (fs.FileInfo, error)
}

// LazerImporter hands content to lazer's own import pipeline. Lazer
// ingests through a content-addressed store, so under StableMaster the
// lazer side is fed by import rather than linked directly.
type LazerImporter interface {
	// QueueImport schedules a path for ingestion by the lazer client.
	QueueImport(path string) error
}
