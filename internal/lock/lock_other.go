//go:build !unix

package lock

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
)

func tryLock(f *os.File) error {
	return errors.Errorf("instance lock is not supported on %s", runtime.GOOS)
}
