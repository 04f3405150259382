package watcher

import (
	"path/filepath"
	"strings"
)

// Transient-file markers. Anything matching is discarded before
// debouncing and never reaches the engine: these are in-flight
// downloads, editor droppings and OS metadata, not content changes.
var (
	transientSuffixes = []string{
		".tmp", ".temp", ".partial", ".part", ".crdownload", ".download", ".swp",
	}
	transientPrefixes = []string{"~$", ".~"}
	transientNames    = map[string]bool{
		"thumbs.db":   true,
		".ds_store":   true,
		"desktop.ini": true,
	}
)

// isTransient reports whether a path refers to a transient or
// incomplete file that must never surface as a notification.
func isTransient(path string) bool {
	name := strings.ToLower(filepath.Base(path))

	if transientNames[name] {
		return true
	}
	for _, suffix := range transientSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, prefix := range transientPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	// Version control internals inside watched trees.
	sep := string(filepath.Separator)
	if strings.Contains(path, sep+".git"+sep) || name == ".git" {
		return true
	}

	return false
}
