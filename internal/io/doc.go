// Package ioutils provides file system utilities.
//
// # File Operations
//
//	fs := afero.NewOsFs()
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir(fs, "/srv/mirror/dist")
//
//	// Check for a local copy and learn its size
//	ok, size, err := ioutils.Exists(fs, "/srv/mirror/dist/foo.tar.gz")
//
//	// Drop a corrupted copy
//	err = ioutils.Remove(fs, "/srv/mirror/dist/foo.tar.gz")
//
// # Disk Space
//
// FreeSpace reports how many bytes can still be written below a directory,
// so large downloads can fail before the disk fills up:
//
//	free, err := ioutils.FreeSpace("/srv/mirror")
package ioutils
