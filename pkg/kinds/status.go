package kinds

// CandidateStatus is the lifecycle state of a ScanCandidate.
type CandidateStatus uint8

const (
	CandidateStatusUnspecified CandidateStatus = iota
	CandidateStatusPending
	CandidateStatusConfirmed
	CandidateStatusIgnored
	CandidateStatusRejected
	CandidateStatusMerged
)

func (s CandidateStatus) IsDefault() bool { return s == CandidateStatusUnspecified }

func (s CandidateStatus) Supported() bool {
	switch s {
	case CandidateStatusPending, CandidateStatusConfirmed, CandidateStatusIgnored,
		CandidateStatusRejected, CandidateStatusMerged:
		return true
	default:
		return false
	}
}

func (s CandidateStatus) String() string {
	switch s {
	case CandidateStatusPending:
		return "pending"
	case CandidateStatusConfirmed:
		return "confirmed"
	case CandidateStatusIgnored:
		return "ignored"
	case CandidateStatusRejected:
		return "rejected"
	case CandidateStatusMerged:
		return "merged"
	default:
		return "unspecified"
	}
}

func (s CandidateStatus) Description() string {
	switch s {
	case CandidateStatusPending:
		return "Pending review"
	case CandidateStatusConfirmed:
		return "Confirmed by user"
	case CandidateStatusIgnored:
		return "Ignored"
	case CandidateStatusRejected:
		return "Rejected"
	case CandidateStatusMerged:
		return "Merged into a cluster"
	default:
		return "Unspecified"
	}
}

func (s CandidateStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CandidateStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = CandidateStatusPending
	case "confirmed":
		*s = CandidateStatusConfirmed
	case "ignored":
		*s = CandidateStatusIgnored
	case "rejected":
		*s = CandidateStatusRejected
	case "merged":
		*s = CandidateStatusMerged
	default:
		*s = CandidateStatusUnspecified
	}
	return nil
}

// IdentityMatchStatus is the lifecycle state of an IdentityMatchCandidate.
type IdentityMatchStatus uint8

const (
	IdentityMatchStatusUnspecified IdentityMatchStatus = iota
	IdentityMatchStatusPending
	IdentityMatchStatusAccepted
	IdentityMatchStatusCanonicalized
	IdentityMatchStatusRejected
)

func (s IdentityMatchStatus) IsDefault() bool { return s == IdentityMatchStatusUnspecified }

func (s IdentityMatchStatus) Supported() bool {
	switch s {
	case IdentityMatchStatusPending, IdentityMatchStatusAccepted,
		IdentityMatchStatusCanonicalized, IdentityMatchStatusRejected:
		return true
	default:
		return false
	}
}

func (s IdentityMatchStatus) String() string {
	switch s {
	case IdentityMatchStatusPending:
		return "pending"
	case IdentityMatchStatusAccepted:
		return "accepted"
	case IdentityMatchStatusCanonicalized:
		return "canonicalized"
	case IdentityMatchStatusRejected:
		return "rejected"
	default:
		return "unspecified"
	}
}

// ClusterStatus is the lifecycle state of a MatchCluster.
type ClusterStatus uint8

const (
	ClusterStatusUnspecified ClusterStatus = iota
	ClusterStatusSuggested
	ClusterStatusAccepted
	ClusterStatusRejected
)

func (s ClusterStatus) IsDefault() bool { return s == ClusterStatusUnspecified }

func (s ClusterStatus) Supported() bool {
	switch s {
	case ClusterStatusSuggested, ClusterStatusAccepted, ClusterStatusRejected:
		return true
	default:
		return false
	}
}

func (s ClusterStatus) String() string {
	switch s {
	case ClusterStatusSuggested:
		return "suggested"
	case ClusterStatusAccepted:
		return "accepted"
	case ClusterStatusRejected:
		return "rejected"
	default:
		return "unspecified"
	}
}

func (s ClusterStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ClusterStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "suggested":
		*s = ClusterStatusSuggested
	case "accepted":
		*s = ClusterStatusAccepted
	case "rejected":
		*s = ClusterStatusRejected
	default:
		*s = ClusterStatusUnspecified
	}
	return nil
}

// WatchMode identifies a Sentinel operating mode.
type WatchMode uint8

const (
	WatchModeUnspecified WatchMode = iota
	WatchModeRealtime
	WatchModeScheduled
	WatchModeManual
)

func (m WatchMode) IsDefault() bool { return m == WatchModeUnspecified }

func (m WatchMode) Supported() bool {
	switch m {
	case WatchModeRealtime, WatchModeScheduled, WatchModeManual:
		return true
	default:
		return false
	}
}

func (m WatchMode) Description() string {
	switch m {
	case WatchModeRealtime:
		return "Realtime"
	case WatchModeScheduled:
		return "Scheduled"
	case WatchModeManual:
		return "Manual"
	default:
		return "Unspecified"
	}
}

func (m WatchMode) String() string {
	switch m {
	case WatchModeRealtime:
		return "realtime"
	case WatchModeScheduled:
		return "scheduled"
	case WatchModeManual:
		return "manual"
	default:
		return "unspecified"
	}
}

func (m *WatchMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "realtime":
		*m = WatchModeRealtime
	case "scheduled":
		*m = WatchModeScheduled
	case "manual":
		*m = WatchModeManual
	default:
		*m = WatchModeUnspecified
	}
	return nil
}
