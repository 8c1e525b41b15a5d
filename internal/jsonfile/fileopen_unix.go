//go:build !windows

package jsonfile

import (
	stderrors "errors"
	"os"
	"syscall"
)

// openNoFollow opens path without following a symlink in its last component.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}

func isSymlinkErr(err error) bool {
	return stderrors.Is(err, syscall.ELOOP)
}
