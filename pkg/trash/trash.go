// Package trash implements a quota- and headroom-enforced delete
// staging area: deletes are never destructive at commit time, they move
// content under <config>/.trash/<tx_id>/<original_name>.
package trash

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/galcurator/galcurator/pkg/logging"
)

// Trash manages the staging directory rooted at <configDir>/.trash.
type Trash struct {
	configDir  string
	configPath string
	log        *logging.Logger
}

// New creates a Trash rooted under configDir (the directory that hosts the
// journal and trash_config.json).
func New(configDir string, log *logging.Logger) *Trash {
	return &Trash{
		configDir:  configDir,
		configPath: filepath.Join(configDir, "trash_config.json"),
		log:        log.Sublogger("trash"),
	}
}

// Root returns the path to the .trash directory.
func (t *Trash) Root() string {
	return filepath.Join(t.configDir, ".trash")
}

// PathFor returns the staging path for a given transaction and original
// file/directory name, without creating anything.
func (t *Trash) PathFor(txID, originalName string) string {
	return filepath.Join(t.Root(), txID, originalName)
}

// LoadConfig reads the persisted trash policy, or a sensible default if
// none has been saved yet.
func (t *Trash) LoadConfig() (Config, error) {
	return LoadConfig(t.configPath)
}

// SaveConfig persists a new trash policy.
func (t *Trash) SaveConfig(cfg Config) error {
	return SaveConfig(t.configPath, cfg)
}

// txDir describes one transaction's trash subdirectory for headroom and
// retention accounting.
type txDir struct {
	txID    string
	path    string
	size    int64
	modTime time.Time
}

func (t *Trash) listTxDirs() ([]txDir, error) {
	entries, err := os.ReadDir(t.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unable to list trash root")
	}

	var dirs []txDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(t.Root(), entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		size, err := dirSize(path)
		if err != nil {
			continue
		}
		dirs = append(dirs, txDir{txID: entry.Name(), path: path, size: size, modTime: info.ModTime()})
	}
	return dirs, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Size returns the total size in bytes of everything currently staged.
func (t *Trash) Size() (int64, error) {
	dirs, err := t.listTxDirs()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, d := range dirs {
		total += d.size
	}
	return total, nil
}

// Status is a human-oriented summary for the get_status command endpoint.
type Status struct {
	TotalSize      int64
	TransactionDirs int
	FreeDiskSpace  int64
	Config         Config
}

func (s Status) String() string {
	return humanize.Bytes(uint64(s.TotalSize)) + " used across " +
		humanize.Comma(int64(s.TransactionDirs)) + " transactions, " +
		humanize.Bytes(uint64(s.FreeDiskSpace)) + " free on volume"
}

// GetStatus reports current usage, transaction count, and free disk space.
func (t *Trash) GetStatus() (Status, error) {
	cfg, err := t.LoadConfig()
	if err != nil {
		return Status{}, err
	}
	dirs, err := t.listTxDirs()
	if err != nil {
		return Status{}, err
	}
	var total int64
	for _, d := range dirs {
		total += d.size
	}
	free, err := freeDiskSpace(t.configDir)
	if err != nil {
		t.log.Warn(errors.Wrap(err, "unable to determine free disk space"))
	}
	return Status{TotalSize: total, TransactionDirs: len(dirs), FreeDiskSpace: free, Config: cfg}, nil
}

// FreeDiskSpace reports the number of bytes free on the volume containing
// path. Exported so other components with their own disk-free pre-flight
// checks (the organizer's move plan) don't need their own
// platform-specific statfs plumbing.
func FreeDiskSpace(path string) (int64, error) {
	return freeDiskSpace(path)
}

// EnsureHeadroom computes current trash size and free disk space, and if
// the configured quota is exceeded or free space falls below the
// configured minimum, deletes the oldest transaction directories (by
// modification time) until both constraints hold or the trash is empty.
// It is called before every stage.
func (t *Trash) EnsureHeadroom() error {
	cfg, err := t.LoadConfig()
	if err != nil {
		return err
	}

	dirs, err := t.listTxDirs()
	if err != nil {
		return err
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].modTime.Before(dirs[j].modTime) })

	var total int64
	for _, d := range dirs {
		total += d.size
	}

	maxBytes := cfg.MaxSizeBytes()
	minFreeBytes := cfg.MinDiskFreeBytes()

	for len(dirs) > 0 {
		free, ferr := freeDiskSpace(t.configDir)
		overQuota := maxBytes > 0 && total > maxBytes
		underFree := ferr == nil && minFreeBytes > 0 && free < minFreeBytes
		if !overQuota && !underFree {
			break
		}

		oldest := dirs[0]
		if err := os.RemoveAll(oldest.path); err != nil {
			return errors.Wrapf(err, "unable to evict oldest trash transaction %s", oldest.txID)
		}
		t.log.Infof("evicted trash transaction %s (%s) to satisfy headroom", oldest.txID, humanize.Bytes(uint64(oldest.size)))
		total -= oldest.size
		dirs = dirs[1:]
	}

	return nil
}

// Stage moves src into the trash under <tx_id>/<basename(src)> and returns
// the resulting trash path. The caller (the transaction engine) is
// responsible for calling EnsureHeadroom first.
func (t *Trash) Stage(txID, src string) (string, error) {
	dest := t.PathFor(txID, filepath.Base(src))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.Wrap(err, "unable to create trash subdirectory")
	}
	if err := os.Rename(src, dest); err != nil {
		return "", errors.Wrap(err, "unable to move path into trash")
	}
	return dest, nil
}

// Restore moves a previously staged path back to its original location,
// then best-effort removes the now-empty transaction parent directory.
func (t *Trash) Restore(trashPath, originalPath string) error {
	if err := os.MkdirAll(filepath.Dir(originalPath), 0o755); err != nil {
		return errors.Wrap(err, "unable to recreate destination directory")
	}
	if err := os.Rename(trashPath, originalPath); err != nil {
		return errors.Wrap(err, "unable to restore path from trash")
	}
	parent := filepath.Dir(trashPath)
	_ = os.Remove(parent) // best-effort; fails silently if not empty
	return nil
}

// CleanupByRetention deletes transaction directories older than the
// configured retention period. Intended to be driven by the scheduler on
// a weekly cadence.
func (t *Trash) CleanupByRetention(now time.Time) (int, error) {
	cfg, err := t.LoadConfig()
	if err != nil {
		return 0, err
	}
	if cfg.RetentionDays <= 0 {
		return 0, nil
	}
	dirs, err := t.listTxDirs()
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-time.Duration(cfg.RetentionDays) * 24 * time.Hour)
	var removed int
	for _, d := range dirs {
		if d.modTime.Before(cutoff) {
			if err := os.RemoveAll(d.path); err != nil {
				return removed, errors.Wrapf(err, "unable to remove expired trash transaction %s", d.txID)
			}
			removed++
		}
	}
	return removed, nil
}

// Empty removes all staged content unconditionally (the empty command
// endpoint).
func (t *Trash) Empty() error {
	if err := os.RemoveAll(t.Root()); err != nil {
		return errors.Wrap(err, "unable to empty trash")
	}
	return os.MkdirAll(t.Root(), 0o755)
}
