package galcurator

import "fmt"

const (
	// VersionMajor is the current major version.
	VersionMajor = 0
	// VersionMinor is the current minor version.
	VersionMinor = 1
	// VersionPatch is the current patch version.
	VersionPatch = 0
)

// Version is the formatted "major.minor.patch" version string.
var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)

// DebugEnabled is a process-wide debug flag. It defaults to false and is
// not set or read anywhere in this module; logging verbosity is governed
// by the level of each logging.Logger.
var DebugEnabled bool
