//go:build !windows

package trash

import (
	"syscall"

	"github.com/pkg/errors"
)

// freeDiskSpace returns the number of bytes free on the volume containing
// path.
func freeDiskSpace(path string) (int64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, errors.Wrap(err, "unable to stat filesystem")
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
