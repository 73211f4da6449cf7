// Package storage reads and writes named files under a single root directory.
package storage

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nczempin/httpd-go-uring/errors"
)

const filePerm = 0o644

// tempPattern names in-progress uploads. Its length does not depend on the
// target name, so any name the directory accepts can be written.
const tempPattern = ".upload-*"

// FileStore resolves file names against a root directory. Reads take no
// locks; writes to the same name are serialized and replace the file
// atomically, so concurrent writers end with one writer's full contents.
type FileStore struct {
	root string

	mu    sync.Mutex
	locks map[string]*nameLock
}

type nameLock struct {
	mu   sync.Mutex
	refs int
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		root:  filepath.Clean(dir),
		locks: make(map[string]*nameLock),
	}
}

// Root returns the cleaned root directory
func (s *FileStore) Root() string {
	return s.root
}

// Read returns the contents of name. An existing empty file yields an empty,
// non-nil slice; a missing file or a directory yields StorageErrorFileNotFound.
func (s *FileStore) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewStorageError(errors.StorageErrorFileNotFound, name, err)
		}
		return nil, errors.NewStorageError(errors.StorageErrorReadFailure, name, err)
	}
	if info.IsDir() {
		return nil, errors.NewStorageError(errors.StorageErrorFileNotFound, name+" is a directory", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewStorageError(errors.StorageErrorFileNotFound, name, err)
		}
		return nil, errors.NewStorageError(errors.StorageErrorReadFailure, name, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Write creates or overwrites name with data
func (s *FileStore) Write(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	unlock := s.lock(name)
	defer unlock()

	tmp, err := os.CreateTemp(s.root, tempPattern)
	if err != nil {
		return errors.NewStorageError(errors.StorageErrorWriteFailure, name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewStorageError(errors.StorageErrorWriteFailure, name, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewStorageError(errors.StorageErrorWriteFailure, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError(errors.StorageErrorWriteFailure, name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError(errors.StorageErrorWriteFailure, name, err)
	}
	return nil
}

// resolve joins name to the root. Names must be a single path element.
func (s *FileStore) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.IndexByte(name, 0) >= 0 {
		return "", errors.NewStorageError(errors.StorageErrorInvalidName, name, nil)
	}

	path := filepath.Join(s.root, name)
	if filepath.Dir(path) != s.root {
		return "", errors.NewStorageError(errors.StorageErrorInvalidName, name, nil)
	}
	return path, nil
}

// lock acquires the per-name write lock. Entries are dropped once no writer
// holds or waits for them.
func (s *FileStore) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &nameLock{}
		s.locks[name] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, name)
		}
		s.mu.Unlock()
	}
}
