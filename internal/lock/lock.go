// Package lock keeps two downloader runs from working at the same time.
//
// The lock is advisory: it is an exclusive, non-blocking flock on a lock
// file. The file is removed on Release, and the kernel drops the lock if
// the process dies without releasing it.
package lock

import (
	"os"

	"github.com/pkg/errors"
)

// ErrAlreadyLocked is returned by Acquire when another process holds the lock.
var ErrAlreadyLocked = errors.New("already running")

// Lock is a held instance lock.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes the lock at path without waiting.
//
// Returns ErrAlreadyLocked if another process holds it.
//
// Example:
//
//	l, err := lock.Acquire("/tmp/downloader.lock")
//	if errors.Is(err, lock.ErrAlreadyLocked) {
//	    fmt.Println("already running...")
//	    return nil
//	}
//	defer l.Release()
func Acquire(path string) (*Lock, error) {
	for {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "open lock file %s", path)
		}
		if err := tryLock(f); err != nil {
			f.Close()
			return nil, err
		}

		// The previous holder may have unlinked the file between our open
		// and flock. Holding a lock on an orphaned inode excludes nobody.
		linked, err := isLinked(f, path)
		if err != nil {
			f.Close()
			return nil, err
		}
		if linked {
			return &Lock{path: path, file: f}, nil
		}
		f.Close()
	}
}

// isLinked reports whether path still names the open file f.
func isLinked(f *os.File, path string) (bool, error) {
	held, err := f.Stat()
	if err != nil {
		return false, errors.Wrapf(err, "stat lock file %s", path)
	}
	current, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "stat lock file %s", path)
	}
	return os.SameFile(held, current), nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file and drops the lock. The file is unlinked
// while still locked; Acquire detects and retries on such a stale inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	removeErr := os.Remove(l.path)
	closeErr := l.file.Close()
	l.file = nil
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return errors.Wrapf(removeErr, "remove lock file %s", l.path)
	}
	return closeErr
}
