package ioutils

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir(fs, "/srv/mirror/dist")
//	// Creates /srv, /srv/mirror and /srv/mirror/dist if needed
func EnsureDir(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(path, 0755); err != nil {
		return errors.Wrapf(err, "create directory %s", path)
	}
	return nil
}

// Exists reports whether path exists and, if so, its size in bytes.
//
// Symbolic links are followed: a dangling link counts as absent and the
// reported size is the target's. Errors other than "not exist" are
// returned to the caller.
//
// Example:
//
//	ok, size, err := Exists(fs, "/srv/mirror/dist/foo.tar.gz")
func Exists(fs afero.Fs, path string) (bool, int64, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, errors.Wrapf(err, "stat %s", path)
	}
	return true, info.Size(), nil
}

// Create creates or truncates path with mode 0644.
func Create(fs afero.Fs, path string) (afero.File, error) {
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return f, nil
}

// Remove deletes path. A missing file is not an error.
func Remove(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %s", path)
	}
	return nil
}
