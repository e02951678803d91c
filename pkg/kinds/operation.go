package kinds

import "github.com/pkg/errors"

// OperationKind identifies the filesystem operation a transaction performs.
type OperationKind uint8

const (
	// OperationUnspecified is the zero value and is never valid on an
	// appended journal entry.
	OperationUnspecified OperationKind = iota
	// OperationRename moves a path within a single filesystem root.
	OperationRename
	// OperationMkdir creates a directory.
	OperationMkdir
	// OperationCopy copies a file or directory tree.
	OperationCopy
	// OperationDelete stages a path into the trash.
	OperationDelete
)

// IsDefault indicates whether this is the zero value.
func (k OperationKind) IsDefault() bool {
	return k == OperationUnspecified
}

// Supported indicates whether this is a valid, non-default operation kind.
func (k OperationKind) Supported() bool {
	switch k {
	case OperationRename, OperationMkdir, OperationCopy, OperationDelete:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description.
func (k OperationKind) Description() string {
	switch k {
	case OperationRename:
		return "Rename"
	case OperationMkdir:
		return "Create directory"
	case OperationCopy:
		return "Copy"
	case OperationDelete:
		return "Delete"
	default:
		return "Unspecified"
	}
}

// String implements fmt.Stringer with the wire tag used in journal entries.
func (k OperationKind) String() string {
	switch k {
	case OperationRename:
		return "rename"
	case OperationMkdir:
		return "mkdir"
	case OperationCopy:
		return "copy"
	case OperationDelete:
		return "delete"
	default:
		return "unspecified"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k OperationKind) MarshalText() ([]byte, error) {
	if !k.Supported() {
		return nil, errors.Errorf("unsupported operation kind: %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OperationKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "rename":
		*k = OperationRename
	case "mkdir":
		*k = OperationMkdir
	case "copy":
		*k = OperationCopy
	case "delete":
		*k = OperationDelete
	default:
		return errors.Errorf("unknown operation kind: %s", text)
	}
	return nil
}
