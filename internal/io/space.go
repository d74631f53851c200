package ioutils

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
)

// FreeSpace returns the number of bytes available to unprivileged users
// on the file system holding dir.
//
// Example:
//
//	free, err := FreeSpace("/srv/mirror")
//	fmt.Printf("%s free\n", humanize.Bytes(free))
func FreeSpace(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "disk usage of %s", dir)
	}
	return usage.Free, nil
}
