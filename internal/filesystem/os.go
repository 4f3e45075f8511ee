// Package filesystem abstracts the file operations used by the configuration rewriting services.
package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem exposes the file operations required to read, rewrite and restore configuration files.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Abs(path string) (string, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, permissions fs.FileMode) error
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile replaces file contents, creating the file with the supplied permissions when absent.
func (OSFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) error {
	return os.WriteFile(path, data, permissions)
}

// Resolve returns the provided file system or an OS-backed default.
func Resolve(existing FileSystem) FileSystem {
	if existing != nil {
		return existing
	}
	return OSFileSystem{}
}

// PermissionsOrDefault returns the permission bits of path, or fallback when the file cannot be inspected.
func PermissionsOrDefault(fileSystem FileSystem, path string, fallback fs.FileMode) fs.FileMode {
	fileInfo, statError := fileSystem.Stat(path)
	if statError != nil {
		return fallback
	}
	return fileInfo.Mode().Perm()
}
