package sentinel

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/pathsandbox"
)

// ignoredBaseNames lists directory base names that a full scan and the
// realtime watcher never descend into. It is much narrower than the
// candidate detector's ignore list, which also rejects every dot-directory
// and names such as Photos or backup.
var ignoredBaseNames = map[string]bool{
	".git":              true,
	".polling_snapshot": true,
}

// FullScan walks every root, applies the sandbox filter, and returns the
// set of directories below each root that contain any file or
// subdirectory. If nothing below a root has content but the root itself
// does, the root itself is returned for that root.
func FullScan(roots []string) ([]string, error) {
	found := make(map[string]struct{})

	for _, root := range roots {
		resolvedRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to resolve root %q", root)
		}

		hasContent := false
		foundBelowRoot := false
		err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				if os.IsNotExist(walkErr) {
					return nil
				}
				return walkErr
			}
			if path == root {
				return nil
			}
			if !pathsandbox.IsSafe(path, resolvedRoot) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() && ignoredBaseNames[filepath.Base(path)] {
				return filepath.SkipDir
			}

			hasContent = true
			if parent := filepath.Dir(path); parent != root {
				found[parent] = struct{}{}
				foundBelowRoot = true
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "unable to walk root %q", root)
		}
		if hasContent && !foundBelowRoot {
			found[root] = struct{}{}
		}
	}

	dirs := make([]string, 0, len(found))
	for dir := range found {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}
