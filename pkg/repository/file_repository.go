package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

const (
	recordFileName = "environment.json"
	lockFileName   = "environment.lock"
)

// FileRepository persists environments as JSON documents under a base
// directory, one subdirectory per environment:
//
//	{base}/{name}/environment.json
//
// Writes go through a temp file and rename so readers never observe a
// partially written record.
type FileRepository struct {
	base string
}

var _ environment.Repository = (*FileRepository)(nil)

// NewFileRepository returns a repository rooted at base. The directory is
// created lazily on the first Save.
func NewFileRepository(base string) *FileRepository {
	return &FileRepository{base: base}
}

func (r *FileRepository) envDir(name environment.Name) string {
	return filepath.Join(r.base, name.String())
}

func (r *FileRepository) recordPath(name environment.Name) string {
	return filepath.Join(r.envDir(name), recordFileName)
}

func (r *FileRepository) lockPath(name environment.Name) string {
	return filepath.Join(r.envDir(name), lockFileName)
}

// Save persists the environment, replacing any previous record.
func (r *FileRepository) Save(a environment.Any) error {
	data, err := environment.Marshal(a)
	if err != nil {
		return &environment.InternalError{Op: "save", Err: err}
	}

	dir := r.envDir(a.Name())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &environment.InternalError{Op: "save", Err: err}
	}

	tmp, err := os.CreateTemp(dir, recordFileName+".tmp-*")
	if err != nil {
		return &environment.InternalError{Op: "save", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &environment.InternalError{Op: "save", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &environment.InternalError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &environment.InternalError{Op: "save", Err: err}
	}

	if err := os.Rename(tmpName, r.recordPath(a.Name())); err != nil {
		return &environment.InternalError{Op: "save", Err: err}
	}
	return nil
}

// Load returns the stored environment, or (nil, nil) when no record exists.
func (r *FileRepository) Load(name environment.Name) (environment.Any, error) {
	data, err := os.ReadFile(r.recordPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &environment.InternalError{Op: "load", Err: err}
	}

	a, err := environment.Unmarshal(data)
	if err != nil {
		return nil, &environment.InternalError{Op: "load", Err: err}
	}
	return a, nil
}

// Exists reports whether a record exists for the name.
func (r *FileRepository) Exists(name environment.Name) (bool, error) {
	_, err := os.Stat(r.recordPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &environment.InternalError{Op: "exists", Err: err}
	}
	return true, nil
}

// Delete removes the record and the environment's directory. Deleting a
// non-existent record is not an error.
func (r *FileRepository) Delete(name environment.Name) error {
	if err := os.RemoveAll(r.envDir(name)); err != nil {
		return &environment.InternalError{Op: "delete", Err: err}
	}
	return nil
}

// List loads every stored environment, sorted by name. Directories without a
// record file (for example a leftover lock directory) are skipped.
func (r *FileRepository) List() ([]environment.Any, error) {
	entries, err := os.ReadDir(r.base)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &environment.InternalError{Op: "list", Err: err}
	}

	var out []environment.Any
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, err := environment.NewName(entry.Name())
		if err != nil {
			continue
		}
		a, err := r.Load(name)
		if err != nil {
			return nil, err
		}
		if a == nil {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name().String() < out[j].Name().String()
	})
	return out, nil
}

// Lock takes the environment's cross-process lock and returns the release
// function. A second Lock while the first is held fails with
// environment.ErrConflict. Releasing is idempotent.
func (r *FileRepository) Lock(name environment.Name) (func() error, error) {
	dir := r.envDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &environment.InternalError{Op: "lock", Err: err}
	}

	path := r.lockPath(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		holder := lockHolder(path)
		return nil, fmt.Errorf("environment %q: held by %s: %w", name, holder, environment.ErrConflict)
	}
	if err != nil {
		return nil, &environment.InternalError{Op: "lock", Err: err}
	}

	// The pid is informational, for the conflict message of the next caller.
	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, &environment.InternalError{Op: "lock", Err: err}
	}

	released := false
	return func() error {
		if released {
			return nil
		}
		released = true
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &environment.InternalError{Op: "unlock", Err: err}
		}
		return nil
	}, nil
}

func lockHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown process"
	}
	pid, err := strconv.Atoi(string(trimNewline(data)))
	if err != nil {
		return "unknown process"
	}
	return fmt.Sprintf("pid %d", pid)
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
