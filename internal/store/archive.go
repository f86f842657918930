package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Archive file patterns. The 14-digit prefix is a zero-padded
// YYYYMMDDHHMMSS timestamp, so lexicographic order is chronological.
var (
	XMLArchivePattern  = regexp.MustCompile(`^\d{14}_t\.xml$`)
	JSONArchivePattern = regexp.MustCompile(`^\d{14}_t\.json$`)
)

// FileArchive stores raw response bodies in one directory and bounds the
// number of files matching pattern.
type FileArchive struct {
	dir     string
	pattern *regexp.Regexp
}

// NewArchive creates an archive rooted at dir. The directory is created on
// first Save.
func NewArchive(dir string, pattern *regexp.Regexp) *FileArchive {
	return &FileArchive{dir: dir, pattern: pattern}
}

// Dir returns the archive directory.
func (a *FileArchive) Dir() string {
	return a.dir
}

// Save writes body unchanged under name, or under the next free numbered
// variant of name. It never overwrites an existing file.
func (a *FileArchive) Save(name string, body []byte) (string, error) {
	return SaveUnique(a.dir, name, body, SchemeIncrement)
}

// SaveSequential is Save with the sequential naming scheme.
func (a *FileArchive) SaveSequential(name string, body []byte) (string, error) {
	return SaveUnique(a.dir, name, body, SchemeSequential)
}

// Prune deletes the earliest matching files beyond keep and returns the
// removed paths. Files not matching the archive pattern are never touched.
func (a *FileArchive) Prune(keep int) ([]string, error) {
	names, err := a.List()
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(names) <= keep {
		return nil, nil
	}

	over := len(names) - keep
	removed := make([]string, 0, over)
	for _, name := range names[:over] {
		p := filepath.Join(a.dir, name)
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// List returns the names of matching archive files, oldest first.
// A missing directory yields an empty list.
func (a *FileArchive) List() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive dir %s: %w", a.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && a.pattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// SaveUnique writes body to dir/name, or to the next free name under the
// given scheme, and returns the path actually written.
func SaveUnique(dir, name string, body []byte, scheme Scheme) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir %s: %w", dir, err)
	}

	for {
		p := NextAvailableName(filepath.Join(dir, name), pathExists, scheme)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				// created between the probe and the open; probe again
				continue
			}
			return "", fmt.Errorf("create %s: %w", p, err)
		}
		if _, err := f.Write(body); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write %s: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", p, err)
		}
		return p, nil
	}
}

func pathExists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
