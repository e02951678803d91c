//go:build windows

package trash

import (
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
)

// freeDiskSpace returns the number of bytes free on the volume containing
// path, via the GetDiskFreeSpaceExW Win32 API.
func freeDiskSpace(path string) (int64, error) {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	proc := kernel32.NewProc("GetDiskFreeSpaceExW")

	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return 0, errors.Wrap(err, "unable to convert path")
	}

	var freeBytesAvailable uint64
	ret, _, callErr := proc.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		0,
		0,
	)
	if ret == 0 {
		return 0, errors.Wrap(callErr, "GetDiskFreeSpaceExW failed")
	}
	return int64(freeBytesAvailable), nil
}
