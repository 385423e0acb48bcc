//go:build !linux

package safefileio

import "os"

// openNoFollow uses the portable two-phase check; openat2 is Linux only.
func openNoFollow(absPath string, flag int, perm os.FileMode) (*os.File, error) {
	return openNoFollowFallback(absPath, flag, perm)
}
