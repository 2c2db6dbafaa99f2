// Package vfs provides the file-system capability consumed by the project system.
//
// Components only ever probe for files and read small documents, so the
// interface is narrow. Implementations are backed by afero, which gives the
// same behaviour on the real OS file system and in memory for tests.
package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FS is the file-system capability.
type FS interface {
	// FileExists reports whether path names an existing regular file.
	// A missing path is not an error.
	FileExists(path string) (bool, error)

	// ReadFile reads the entire file content.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// Stat returns file information.
	Stat(path string) (fs.FileInfo, error)
}

// AferoFS implements FS on top of an afero.Fs.
//
// AferoFS is safe for concurrent use when the underlying afero.Fs is.
type AferoFS struct {
	fs afero.Fs
}

// Ensure AferoFS implements FS.
var _ FS = (*AferoFS)(nil)

// New wraps an afero file system.
func New(base afero.Fs) *AferoFS {
	return &AferoFS{fs: base}
}

// NewOSFS returns an FS backed by the operating system.
func NewOSFS() *AferoFS {
	return New(afero.NewOsFs())
}

// NewMemFS returns an empty in-memory FS.
func NewMemFS() *AferoFS {
	return New(afero.NewMemMapFs())
}

// Afero returns the underlying afero.Fs.
func (a *AferoFS) Afero() afero.Fs {
	return a.fs
}

// FileExists reports whether path names an existing regular file.
func (a *AferoFS) FileExists(path string) (bool, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return false, nil
		}
		return false, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return !info.IsDir(), nil
}

// ReadFile reads the entire file content.
func (a *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// WriteFile writes data to a file, creating parent directories as needed.
func (a *AferoFS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return afero.WriteFile(a.fs, path, data, perm)
}

// Stat returns file information.
func (a *AferoFS) Stat(path string) (fs.FileInfo, error) {
	return a.fs.Stat(path)
}
