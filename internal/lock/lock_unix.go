//go:build unix

package lock

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func tryLock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return errors.Wrapf(ErrAlreadyLocked, "lock %s", f.Name())
	}
	if err != nil {
		return errors.Wrapf(err, "lock %s", f.Name())
	}
	return nil
}
