package sentinel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// snapshotVersion is the current persisted-snapshot schema version; a
// mismatch on load forces a full initial scan instead of trusting stale
// data.
const snapshotVersion = 1

const snapshotFileName = ".polling_snapshot.json"

// Snapshot is the polling fallback's persisted state: every regular file
// under a root, mapped to its last-observed modification time.
type Snapshot struct {
	Version   int                  `json:"version"`
	Timestamp time.Time            `json:"timestamp"`
	Files     map[string]time.Time `json:"snapshot"`
}

// snapshotPath returns the path a root's snapshot is persisted at.
func snapshotPath(root string) string {
	return filepath.Join(root, snapshotFileName)
}

// loadSnapshot loads the persisted snapshot for root. It returns ok=false
// (triggering a full initial scan) if the file is absent, unparsable, or
// at an incompatible version.
func loadSnapshot(root string) (Snapshot, bool) {
	data, err := os.ReadFile(snapshotPath(root))
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, false
	}
	return snap, true
}

// saveSnapshot persists snap for root.
func saveSnapshot(root string, snap Snapshot) error {
	snap.Version = snapshotVersion
	snap.Timestamp = time.Now()
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "unable to marshal polling snapshot")
	}
	if err := os.WriteFile(snapshotPath(root), data, 0o644); err != nil {
		return errors.Wrap(err, "unable to write polling snapshot")
	}
	return nil
}
