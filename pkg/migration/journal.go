package migration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/unisync/pkg/errors"
	"github.com/arthur-debert/unisync/pkg/manifest"
	"github.com/arthur-debert/unisync/pkg/types"
)

// moveRecord remembers a directory that was renamed aside so the link
// could take its place. From is the original location, To the backup.
type moveRecord struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// linkRecord remembers one link artifact the migration created.
type linkRecord struct {
	Path string         `json:"path"`
	Type types.LinkType `json:"type"`
}

// journal is persisted after every completed step so a crashed or
// killed migration can still be rolled back on the next run.
type journal struct {
	StartedAt        time.Time                 `json:"started_at"`
	Mode             types.Mode                `json:"mode"`
	SharedPath       string                    `json:"shared_path"`
	BytesTotal       int64                     `json:"bytes_total"`
	CreatedDirs      []string                  `json:"created_dirs"`
	CopiedDirs       []string                  `json:"copied_dirs"`
	MovedDirs        []moveRecord              `json:"moved_dirs"`
	CreatedLinks     []linkRecord              `json:"created_links"`
	ManifestSnapshot []manifest.LinkedResource `json:"manifest_snapshot"`
	Completed        []Step                    `json:"completed_steps"`
}

func (j *journal) save(fsys types.FS, path string) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot marshal migration journal")
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "cannot create backup directory")
	}
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write migration journal at %s", path)
	}
	return nil
}

func loadJournal(fsys types.FS, path string) (*journal, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "no migration journal at %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read migration journal at %s", path)
	}

	var j journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "migration journal at %s is corrupt", path)
	}
	return &j, nil
}
