package kinds

// TxState is a transaction's position in the {prepared -> {committed |
// failed} -> rolled_back} state lattice. Transitions are one-way; see
// pkg/transaction for the FSM that enforces this.
type TxState uint8

const (
	// TxStateUnspecified is the zero value and never appears on an
	// appended journal entry.
	TxStateUnspecified TxState = iota
	// TxStatePrepared is the initial state after a successful journal
	// append and before commit or rollback.
	TxStatePrepared
	// TxStateCommitted means the filesystem operation executed
	// successfully.
	TxStateCommitted
	// TxStateFailed means the filesystem operation raised during commit,
	// or the prepare-time journal append itself failed.
	TxStateFailed
	// TxStateRolledBack means the operation's effect was reversed.
	TxStateRolledBack
)

// IsDefault indicates whether this is the zero value.
func (s TxState) IsDefault() bool {
	return s == TxStateUnspecified
}

// Supported indicates whether this is a valid, non-default state.
func (s TxState) Supported() bool {
	switch s {
	case TxStatePrepared, TxStateCommitted, TxStateFailed, TxStateRolledBack:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description.
func (s TxState) Description() string {
	switch s {
	case TxStatePrepared:
		return "Prepared"
	case TxStateCommitted:
		return "Committed"
	case TxStateFailed:
		return "Failed"
	case TxStateRolledBack:
		return "Rolled back"
	default:
		return "Unspecified"
	}
}

// String implements fmt.Stringer with the wire tag used in journal entries.
func (s TxState) String() string {
	switch s {
	case TxStatePrepared:
		return "prepared"
	case TxStateCommitted:
		return "committed"
	case TxStateFailed:
		return "failed"
	case TxStateRolledBack:
		return "rolled_back"
	default:
		return "unspecified"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s TxState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown values decode
// to TxStateUnspecified rather than erroring, so that journal readers can
// skip-and-log forward-incompatible entries instead of aborting recovery.
func (s *TxState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "prepared":
		*s = TxStatePrepared
	case "committed":
		*s = TxStateCommitted
	case "failed":
		*s = TxStateFailed
	case "rolled_back":
		*s = TxStateRolledBack
	default:
		*s = TxStateUnspecified
	}
	return nil
}

// CanTransitionTo reports whether moving from s to next is a legal,
// one-way lattice transition.
func (s TxState) CanTransitionTo(next TxState) bool {
	switch s {
	case TxStatePrepared:
		return next == TxStateCommitted || next == TxStateFailed || next == TxStateRolledBack
	case TxStateCommitted, TxStateFailed:
		return next == TxStateRolledBack
	default:
		return false
	}
}
