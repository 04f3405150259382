package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/arthur-debert/unisync/pkg/types"
)

// Installs holds the roots of the two game installations.
type Installs struct {
	StableRoot string
	LazerRoot  string
}

// DetectInstalls resolves the installation roots from environment
// overrides or platform defaults. Roots are not checked for existence
// here; callers validate the roots they actually operate on.
func DetectInstalls() Installs {
	i := Installs{
		StableRoot: os.Getenv(EnvStableRoot),
		LazerRoot:  os.Getenv(EnvLazerRoot),
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return i
	}

	if i.StableRoot == "" {
		if runtime.GOOS == "windows" {
			i.StableRoot = filepath.Join(os.Getenv("LOCALAPPDATA"), "osu!")
		} else {
			i.StableRoot = filepath.Join(home, ".local", "share", "osu-stable")
		}
	} else {
		i.StableRoot = ExpandHome(i.StableRoot)
	}

	if i.LazerRoot == "" {
		if runtime.GOOS == "windows" {
			i.LazerRoot = filepath.Join(os.Getenv("APPDATA"), "osu")
		} else {
			i.LazerRoot = filepath.Join(home, ".local", "share", "osu")
		}
	} else {
		i.LazerRoot = ExpandHome(i.LazerRoot)
	}

	return i
}

// Root returns the installation root for a game.
func (i Installs) Root(g types.Game) string {
	if g == types.GameLazer {
		return i.LazerRoot
	}
	return i.StableRoot
}

// StableResourceDir returns the stable-side folder for a resource.
func (i Installs) StableResourceDir(rt types.ResourceType) string {
	return filepath.Join(i.StableRoot, rt.StableFolder())
}

// LazerFilesDir returns lazer's content-addressed file store. Content
// in here is owned by lazer's database and is never linked directly.
func (i Installs) LazerFilesDir() string {
	return filepath.Join(i.LazerRoot, "files")
}

// LazerResourceDir returns the lazer-side loose folder for a resource,
// or "" when lazer keeps that resource inside its content-addressed
// store and must receive it through import instead.
func (i Installs) LazerResourceDir(rt types.ResourceType) string {
	switch rt {
	case types.ResourceExports:
		return filepath.Join(i.LazerRoot, "exports")
	case types.ResourceScreenshots:
		return filepath.Join(i.LazerRoot, "screenshots")
	case types.ResourceReplays:
		return filepath.Join(i.LazerRoot, "replays")
	}
	return ""
}

// LazerExportDir returns where lazer materializes a resource it
// otherwise keeps inside its content-addressed store. Under LazerMaster
// this export tree is the authoritative side.
func (i Installs) LazerExportDir(rt types.ResourceType) string {
	return filepath.Join(i.LazerRoot, "exports", rt.SharedFolder())
}

// SharedResourceDir returns a resource's subdirectory inside a unified
// shared root.
func SharedResourceDir(sharedRoot string, rt types.ResourceType) string {
	return filepath.Join(sharedRoot, rt.SharedFolder())
}
