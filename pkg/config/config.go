// Package config implements the two-layer configuration scheme from
// SPEC_FULL.md's AMBIENT STACK section: a TOML file holding the bulk of
// settings, layered under environment variable overrides, resolved into
// one immutable snapshot per load.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// File is the on-disk TOML document.
type File struct {
	LibraryRoots []string  `toml:"library_roots"`
	SentinelMode string    `toml:"sentinel_mode"`
	TrashConfig  Trash     `toml:"trash"`
	Scheduler    Scheduler `toml:"scheduler"`
	NamingPolicy string    `toml:"naming_policy_path"`
}

// Trash mirrors the trash.Config fields a user can set in the file.
type Trash struct {
	MaxSizeGB     float64 `toml:"max_size_gb"`
	RetentionDays int     `toml:"retention_days"`
	MinDiskFreeGB float64 `toml:"min_disk_free_gb"`
}

// Scheduler mirrors the three background job cadences a user can tune.
type Scheduler struct {
	LibraryScanIntervalSeconds int `toml:"library_scan_interval_seconds"`
	BackupHour                 int `toml:"backup_hour"`
	RetentionSweepDay          int `toml:"retention_sweep_weekday"`
}

// Default returns the file-layer defaults applied before any file or
// environment overlay.
func Default() File {
	return File{
		SentinelMode: "realtime",
		TrashConfig: Trash{
			RetentionDays: 30,
		},
		Scheduler: Scheduler{
			BackupHour:        3,
			RetentionSweepDay: 0,
		},
	}
}

// LoadFile reads and decodes a TOML config file at path, starting from
// Default() so unset fields retain their default values.
func LoadFile(path string) (File, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return File{}, errors.Wrapf(err, "unable to decode config file %q", path)
	}
	return cfg, nil
}

// ConfigDir resolves the configuration directory: GALGAME_CONFIG_DIR if
// set, else VNITE_DATA_PATH (for deployments sharing a VNite data
// directory), else the OS default config directory.
func ConfigDir() (string, error) {
	if dir := os.Getenv("GALGAME_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	if dir := os.Getenv("VNITE_DATA_PATH"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve default config directory")
	}
	return filepath.Join(base, "galcurator"), nil
}

// ConfigFilePath is the TOML file path within ConfigDir.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
