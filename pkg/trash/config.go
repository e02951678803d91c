package trash

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Config is the persisted trash policy: {max_size_gb (0=unlimited),
// retention_days, min_disk_free_gb}, stored as trash_config.json beside
// the journal.
type Config struct {
	Version       int     `json:"version"`
	MaxSizeGB     float64 `json:"max_size_gb"`
	RetentionDays int     `json:"retention_days"`
	MinDiskFreeGB float64 `json:"min_disk_free_gb"`
}

// DefaultConfig returns a conservative default policy: 10GB cap, 30 day
// retention, 2GB minimum free disk headroom.
func DefaultConfig() Config {
	return Config{Version: 1, MaxSizeGB: 10, RetentionDays: 30, MinDiskFreeGB: 2}
}

// MaxSizeBytes converts MaxSizeGB to bytes; 0 means unlimited.
func (c Config) MaxSizeBytes() int64 {
	if c.MaxSizeGB <= 0 {
		return 0
	}
	return int64(c.MaxSizeGB * 1024 * 1024 * 1024)
}

// MinDiskFreeBytes converts MinDiskFreeGB to bytes.
func (c Config) MinDiskFreeBytes() int64 {
	return int64(c.MinDiskFreeGB * 1024 * 1024 * 1024)
}

// LoadConfig reads trash_config.json from path, returning DefaultConfig if
// the file does not yet exist.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, errors.Wrap(err, "unable to read trash config")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unable to parse trash config")
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as JSON.
func SaveConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal trash config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "unable to write trash config")
	}
	return nil
}
