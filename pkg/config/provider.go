package config

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Environment variable names recognized by the config layer.
const (
	EnvEnvironment   = "GALGAME_ENV"
	EnvLibraryRoots  = "GALGAME_LIBRARY_ROOTS"
	EnvConfigDir     = "GALGAME_CONFIG_DIR"
	EnvVNiteDataPath = "VNITE_DATA_PATH"
)

// Resolved is the immutable, fully-layered configuration snapshot a
// component reads at construction time.
type Resolved struct {
	Environment  string
	LibraryRoots []string
	SentinelMode string
	TrashConfig  Trash
	Scheduler    Scheduler
	NamingPolicy string
}

// Provider layers defaults -> file -> environment variables into one
// Resolved snapshot, and supports hot-reloading that snapshot behind a
// mutex as the one process-wide mutable piece of configuration state.
type Provider struct {
	path string

	mu       sync.RWMutex
	resolved Resolved
}

// NewProvider loads configPath (which may not exist yet) and layers
// environment overrides on top.
func NewProvider(configPath string) (*Provider, error) {
	p := &Provider{path: configPath}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the config file and environment, replacing the
// snapshot returned by Get. Safe to call concurrently with Get.
func (p *Provider) Reload() error {
	file, err := LoadFile(p.path)
	if err != nil {
		return err
	}

	resolved := Resolved{
		LibraryRoots: file.LibraryRoots,
		SentinelMode: file.SentinelMode,
		TrashConfig:  file.TrashConfig,
		Scheduler:    file.Scheduler,
		NamingPolicy: file.NamingPolicy,
	}
	applyEnvOverrides(&resolved)

	p.mu.Lock()
	p.resolved = resolved
	p.mu.Unlock()
	return nil
}

// Get returns the current resolved snapshot.
func (p *Provider) Get() Resolved {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resolved
}

// applyEnvOverrides checks GALGAME_ENV and GALGAME_LIBRARY_ROOTS and
// overrides the corresponding resolved values. These overrides are never
// persisted back to the config file.
func applyEnvOverrides(r *Resolved) {
	if env := os.Getenv(EnvEnvironment); env != "" {
		r.Environment = env
	}
	if rootsJSON := os.Getenv(EnvLibraryRoots); rootsJSON != "" {
		var roots []string
		if err := json.Unmarshal([]byte(rootsJSON), &roots); err == nil {
			r.LibraryRoots = roots
		}
	}
}

// ParseLibraryRootsEnv decodes GALGAME_LIBRARY_ROOTS directly, surfacing
// a parse error instead of silently ignoring it, for callers (e.g. the
// CLI) that want to fail fast on a malformed override.
func ParseLibraryRootsEnv(value string) ([]string, error) {
	var roots []string
	if err := json.Unmarshal([]byte(value), &roots); err != nil {
		return nil, errors.Wrap(err, "unable to parse GALGAME_LIBRARY_ROOTS as a JSON array")
	}
	return roots, nil
}
