package kinds

// ErrorKind classifies an error raised by the core so that callers across
// package boundaries (and eventually transport adapters, which are out of
// scope here) can branch on a closed set instead of string-matching.
type ErrorKind uint8

const (
	ErrorKindUnspecified ErrorKind = iota
	// ErrorKindPathUnsafe: a path escaped its configured root. Never
	// retried.
	ErrorKindPathUnsafe
	// ErrorKindPreconditionViolated: a semantic pre-check failed (exists /
	// not exists / wrong kind / cross-filesystem rename).
	ErrorKindPreconditionViolated
	// ErrorKindJournalWriteFailed: catastrophic; the operation did not
	// occur.
	ErrorKindJournalWriteFailed
	// ErrorKindOperationFailed: the filesystem call itself failed during
	// commit; partial state is possible.
	ErrorKindOperationFailed
	// ErrorKindRollbackFailed: worst case; requires human inspection.
	ErrorKindRollbackFailed
	// ErrorKindRecoveryFailed: triggers the doomsday fuse.
	ErrorKindRecoveryFailed
	// ErrorKindConflict: canonicalization hit a conflicting IdentityLink.
	ErrorKindConflict
	// ErrorKindCancelled: a scan or long job was cancelled; safe to
	// ignore.
	ErrorKindCancelled
	// ErrorKindServiceUnavailable: the doomsday fuse is tripped and a
	// write command was rejected.
	ErrorKindServiceUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindPathUnsafe:
		return "path_unsafe"
	case ErrorKindPreconditionViolated:
		return "precondition_violated"
	case ErrorKindJournalWriteFailed:
		return "journal_write_failed"
	case ErrorKindOperationFailed:
		return "operation_failed"
	case ErrorKindRollbackFailed:
		return "rollback_failed"
	case ErrorKindRecoveryFailed:
		return "recovery_failed"
	case ErrorKindConflict:
		return "conflict"
	case ErrorKindCancelled:
		return "cancelled"
	case ErrorKindServiceUnavailable:
		return "service_unavailable"
	default:
		return "unspecified"
	}
}

// Retryable reports whether the error kind is one a caller may reasonably
// retry without additional corrective action. Retries are otherwise the
// caller's decision; this only flags the kinds that are unambiguously
// never worth retrying as-is.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindPathUnsafe, ErrorKindConflict:
		return false
	default:
		return true
	}
}
