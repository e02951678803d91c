//go:build !windows

package transaction

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// deviceID returns the filesystem device identifier that path (or its
// nearest existing ancestor) resides on, used to detect cross-filesystem
// renames so they can be rejected per the Open Question (c) decision in
// DESIGN.md.
func deviceID(path string) (uint64, error) {
	for {
		info, err := os.Lstat(path)
		if err == nil {
			stat, ok := info.Sys().(*syscall.Stat_t)
			if !ok {
				return 0, errors.New("unable to extract raw filesystem information")
			}
			return uint64(stat.Dev), nil
		}
		if !os.IsNotExist(err) {
			return 0, errors.Wrap(err, "unable to query filesystem information")
		}
		parent := filepath.Dir(path)
		if parent == path {
			return 0, errors.New("no existing ancestor found")
		}
		path = parent
	}
}
