package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"crowd-monitor/internal/domain"
)

const readingsPrefix = "readings"

// FSArchive stores one immutable JSON object per reading under the data
// directory, keyed by the reading's timestamp:
// readings/<year>/<month>/<day>/<hour>-<minute>.json.
type FSArchive struct {
	root string
}

var (
	_ domain.ReadingArchive = (*FSArchive)(nil)
	_ domain.ArchiveReader  = (*FSArchive)(nil)
)

// NewFSArchive creates an archive rooted at dir.
func NewFSArchive(dir string) *FSArchive {
	return &FSArchive{root: dir}
}

// SaveReading writes the reading and returns its archive path.
func (a *FSArchive) SaveReading(r domain.Reading) (string, error) {
	rel := filepath.Join(readingsPrefix, r.Timestamp.Format("2006/01/02/15-04")+".json")
	full := filepath.Join(a.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode reading: %w", err)
	}
	if err := atomic.WriteFile(full, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write reading: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// List returns the paths of all archived readings, sorted, which orders
// them chronologically given the timestamp-derived layout.
func (a *FSArchive) List() ([]string, error) {
	base := filepath.Join(a.root, readingsPrefix)
	var paths []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk archive: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Read returns the raw contents of one archived object.
func (a *FSArchive) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(a.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("read archive object: %w", err)
	}
	return data, nil
}
