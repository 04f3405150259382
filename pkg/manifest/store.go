package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// Store is the manifest persistence contract. Every mutating call
// durably persists before returning; callers must never assume eventual
// persistence.
type Store interface {
	Upsert(res LinkedResource) error
	Get(rt types.ResourceType, sourcePath string) (LinkedResource, bool)
	All() []LinkedResource
	Remove(rt types.ResourceType, sourcePath string) error

	// ReplaceAll swaps the whole entry set in one durable write. Used
	// by migration rollback to restore a pre-migration snapshot.
	ReplaceAll(resources []LinkedResource) error

	// Path returns the backing file location, or "" for stores that
	// do not persist.
	Path() string
}

// fileStore keeps the authoritative in-memory copy under a mutex and
// flushes the JSON document on every mutation.
type fileStore struct {
	mu      sync.Mutex
	fs      types.FS
	path    string
	entries map[string]LinkedResource
}

// Load opens the manifest at path, creating an empty store when the
// file does not exist yet. Documents written by a newer build are
// refused with a MANIFEST error.
func Load(fsys types.FS, path string) (Store, error) {
	s := &fileStore{
		fs:      fsys,
		path:    path,
		entries: make(map[string]LinkedResource),
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrapf(err, errors.ErrManifest, "cannot read manifest at %s", path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifest, "manifest at %s is corrupt", path)
	}
	if doc.Version > Version {
		return nil, errors.Newf(errors.ErrManifest,
			"manifest version %d is newer than supported version %d", doc.Version, Version)
	}

	for _, res := range doc.Resources {
		s.entries[res.Key()] = res
	}

	logger := logging.GetLogger("manifest")
	logger.Debug().
		Str("path", path).Int("entries", len(s.entries)).Msg("Manifest loaded")
	return s, nil
}

func (s *fileStore) Upsert(res LinkedResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res.ModifiedAt = time.Now().UTC()
	s.entries[res.Key()] = res
	return s.flushLocked()
}

func (s *fileStore) Get(rt types.ResourceType, sourcePath string) (LinkedResource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.entries[LinkedResource{ResourceType: rt, SourcePath: sourcePath}.Key()]
	return res, ok
}

func (s *fileStore) All() []LinkedResource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *fileStore) Remove(rt types.ResourceType, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := LinkedResource{ResourceType: rt, SourcePath: sourcePath}.Key()
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.flushLocked()
}

func (s *fileStore) ReplaceAll(resources []LinkedResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]LinkedResource, len(resources))
	for _, res := range resources {
		s.entries[res.Key()] = res
	}
	return s.flushLocked()
}

func (s *fileStore) Path() string {
	return s.path
}

// snapshotLocked returns the entries in stable key order.
func (s *fileStore) snapshotLocked() []LinkedResource {
	out := make([]LinkedResource, 0, len(s.entries))
	for _, res := range s.entries {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (s *fileStore) flushLocked() error {
	doc := document{
		Version:   Version,
		UpdatedAt: time.Now().UTC(),
		Resources: s.snapshotLocked(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrManifest, "cannot marshal manifest")
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrManifest, "cannot create manifest directory")
	}
	if err := s.fs.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifest, "cannot write manifest at %s", s.path)
	}
	return nil
}

// noopStore discards everything. Installed when track_manifest is
// disabled: links are still created but repair and rollback lose their
// input, which is why the engine warns once at startup.
type noopStore struct{}

// NewNoop returns a store that records nothing.
func NewNoop() Store {
	return noopStore{}
}

func (noopStore) Upsert(LinkedResource) error { return nil }
func (noopStore) Get(types.ResourceType, string) (LinkedResource, bool) {
	return LinkedResource{}, false
}
func (noopStore) All() []LinkedResource                   { return nil }
func (noopStore) Remove(types.ResourceType, string) error { return nil }
func (noopStore) ReplaceAll([]LinkedResource) error       { return nil }
func (noopStore) Path() string                            { return "" }
