// Package pathsandbox implements path-containment checking: the single
// pure function every filesystem mutation in this module is funneled
// through before it is allowed to touch disk.
package pathsandbox

import (
	"os"
	"path/filepath"
	"strings"
)

// resolve converts path to its canonical absolute form: symlinks are
// followed and ".." components are collapsed, since containment checks
// must see through symlinks to the real target rather than trusting the
// literal path components.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	// EvalSymlinks requires the path to exist. For paths that don't exist
	// yet (e.g. a mkdir destination), walk up to the nearest existing
	// ancestor, resolve that, and re-append the missing suffix.
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	dir := filepath.Dir(abs)
	if dir == abs {
		// Reached the filesystem root without finding an existing
		// ancestor; nothing left to resolve.
		return abs, nil
	}
	resolvedDir, derr := resolve(dir)
	if derr != nil {
		return "", derr
	}
	return filepath.Join(resolvedDir, filepath.Base(abs)), nil
}

// longestCommonAncestorEquals reports whether candidate is contained within
// root: i.e. root, after cleaning, is a path-component prefix of candidate.
func longestCommonAncestorEquals(candidate, root string) bool {
	if candidate == root {
		return true
	}
	sep := string(os.PathSeparator)
	prefix := root
	if !strings.HasSuffix(prefix, sep) {
		prefix += sep
	}
	return strings.HasPrefix(candidate, prefix)
}

// IsSafe reports whether path is contained within root once both are
// resolved to their canonical absolute form. Containment is tested by
// requiring the resolved root to be a path-component prefix of the
// resolved path. Any OS error encountered while resolving either
// argument causes IsSafe to fail closed and return false.
func IsSafe(path, root string) bool {
	resolvedRoot, err := resolve(root)
	if err != nil {
		return false
	}
	resolvedPath, err := resolve(path)
	if err != nil {
		return false
	}
	return longestCommonAncestorEquals(resolvedPath, resolvedRoot)
}

// IsSafeJournalDir reports whether dir is suitable for hosting the
// journal: it must exist, be a directory, must not itself be a symlink,
// and must accept a write probe that is removed before returning.
func IsSafeJournalDir(dir string) (bool, error) {
	info, err := os.Lstat(dir)
	if err != nil {
		return false, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return false, nil
	}
	if !info.IsDir() {
		return false, nil
	}

	probe := filepath.Join(dir, ".galcurator-write-probe")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return false, err
	}
	f.Close()
	if err := os.Remove(probe); err != nil {
		return false, err
	}
	return true, nil
}
