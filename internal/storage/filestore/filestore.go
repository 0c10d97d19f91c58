// Package filestore provides a flat-file implementation of the storage.Store interface.
//
// Layout under the root directory:
//
//	<root>/users/users.json      all users
//	<root>/entries/<user>.json   weight entries
//	<root>/settings/<user>.json  settings
//	<root>/water/<user>.json     water entries
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mmynk/weighttrack/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store implements storage.Store with one JSON file per document.
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a Store rooted at root on the given filesystem.
// It does not touch the filesystem; call EnsureDirectories before use.
func New(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root}
}

// NewOS creates a Store on the host filesystem.
func NewOS(root string) *Store {
	return New(afero.NewOsFs(), root)
}

// PathFor maps (domain, key) to its file path. It performs no I/O.
func (s *Store) PathFor(domain storage.Domain, key string) string {
	return filepath.Join(s.root, string(domain), key+".json")
}

// EnsureDirectories creates the root and every domain directory.
// Existing directories are left alone.
func (s *Store) EnsureDirectories() error {
	for _, d := range storage.Domains {
		dir := filepath.Join(s.root, string(d))
		if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
			return &storage.IOError{Op: "mkdir", Domain: d, Key: dir, Err: err}
		}
	}
	return nil
}

// EnsureLayout implements storage.Store.
func (s *Store) EnsureLayout(ctx context.Context) error {
	return s.EnsureDirectories()
}

// Get reads the whole document file.
func (s *Store) Get(ctx context.Context, domain storage.Domain, key string) ([]byte, error) {
	if err := storage.ValidateDoc(domain, key); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.PathFor(domain, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.NotFound(domain, key)
	}
	if err != nil {
		return nil, &storage.IOError{Op: "read", Domain: domain, Key: key, Err: err}
	}
	return data, nil
}

// Put replaces the document file. The data is written to a temporary file in
// the same directory and renamed over the target, so readers never observe a
// partially written document.
func (s *Store) Put(ctx context.Context, domain storage.Domain, key string, data []byte) error {
	if err := storage.ValidateDoc(domain, key); err != nil {
		return err
	}

	path := s.PathFor(domain, key)
	tmp, err := afero.TempFile(s.fs, filepath.Dir(path), "."+key+"-*.tmp")
	if err != nil {
		return &storage.IOError{Op: "write", Domain: domain, Key: key, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return &storage.IOError{Op: "write", Domain: domain, Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return &storage.IOError{Op: "write", Domain: domain, Key: key, Err: err}
	}
	if err := s.fs.Chmod(tmpName, filePerm); err != nil {
		s.fs.Remove(tmpName)
		return &storage.IOError{Op: "chmod", Domain: domain, Key: key, Err: err}
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return &storage.IOError{Op: "rename", Domain: domain, Key: key, Err: fmt.Errorf("failed to replace %s: %w", path, err)}
	}
	return nil
}

// Close is a no-op; files are not held open.
func (s *Store) Close() error {
	return nil
}
