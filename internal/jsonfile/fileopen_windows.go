//go:build windows

package jsonfile

import "os"

// openNoFollow opens path. Windows has no O_NOFOLLOW; WriteBytes still
// refuses a symlink destination before the rename.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

func isSymlinkErr(error) bool {
	return false
}
