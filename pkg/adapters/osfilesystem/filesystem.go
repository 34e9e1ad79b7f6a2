// Package osfilesystem provides a FileSystem implementation backed by the OS.
package osfilesystem

import (
	"os"
	"path/filepath"

	"github.com/user/vidcast/pkg/ports"
)

// FileSystem implements ports.FileSystem using the local filesystem.
type FileSystem struct{}

// New creates a new OS filesystem.
func New() *FileSystem {
	return &FileSystem{}
}

// ReadFile reads a file's contents.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to a file, creating parent directories as needed.
func (f *FileSystem) WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// MkdirAll creates a directory and all required parents.
func (f *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// Exists reports whether a path exists.
func (f *FileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Remove deletes a file or empty directory.
func (f *FileSystem) Remove(path string) error {
	return os.Remove(path)
}

// Ensure FileSystem implements ports.FileSystem
var _ ports.FileSystem = (*FileSystem)(nil)
