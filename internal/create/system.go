package create

import (
	"os"
)

// System abstracts the filesystem operations the orchestrator needs.
// Package-local per the codebase convention so tests can run in parallel
// without shared global state.
type System interface {
	Stat(name string) (os.FileInfo, error)
	Lstat(name string) (os.FileInfo, error)
	Readlink(name string) (string, error)
	MkdirAll(path string, perm os.FileMode) error
	Remove(name string) error
	RemoveAll(path string) error
	Symlink(oldname, newname string) error
	ReadDir(name string) ([]os.DirEntry, error)
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// Lstat returns a FileInfo without following symlinks.
func (RealSystem) Lstat(name string) (os.FileInfo, error) { return os.Lstat(name) }

// Readlink returns the destination of a symbolic link.
func (RealSystem) Readlink(name string) (string, error) { return os.Readlink(name) }

// MkdirAll creates a directory along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Remove removes the named file or empty directory.
func (RealSystem) Remove(name string) error { return os.Remove(name) }

// RemoveAll removes path and any children it contains.
func (RealSystem) RemoveAll(path string) error { return os.RemoveAll(path) }

// Symlink creates newname as a symbolic link to oldname.
func (RealSystem) Symlink(oldname, newname string) error { return os.Symlink(oldname, newname) }

// ReadDir reads the named directory.
func (RealSystem) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }
