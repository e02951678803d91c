package journal

import (
	"time"

	"github.com/galcurator/galcurator/pkg/kinds"
)

// Entry is a single append-only journal record. Entries sharing a TxID
// form the history of one transaction; the sequence of States for a given
// TxID must be monotone in the kinds.TxState lattice.
type Entry struct {
	TxID      string        `json:"tx_id"`
	Op        kinds.OperationKind `json:"op"`
	Src       string        `json:"src"`
	Dest      string        `json:"dest,omitempty"`
	State     kinds.TxState `json:"state"`
	Timestamp time.Time     `json:"timestamp"`
	TimeoutAt time.Time     `json:"timeout_at"`
}

// Stale reports whether a prepared entry's timeout has elapsed as of now.
func (e Entry) Stale(now time.Time) bool {
	return e.State == kinds.TxStatePrepared && now.After(e.TimeoutAt)
}
