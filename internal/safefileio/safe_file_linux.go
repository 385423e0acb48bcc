//go:build linux

package safefileio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// openat2Available reports whether the kernel supports openat2 (Linux 5.6+).
var openat2Available = sync.OnceValue(func() bool {
	fd, err := unix.Openat2(unix.AT_FDCWD, ".", &unix.OpenHow{
		Flags: unix.O_RDONLY | unix.O_DIRECTORY | unix.O_CLOEXEC,
	})
	if err != nil {
		return false
	}
	_ = unix.Close(fd)
	return true
})

// openNoFollow opens absPath with RESOLVE_NO_SYMLINKS so that the kernel
// rejects a symlink in any component atomically. Kernels without openat2
// use the two-phase fallback.
func openNoFollow(absPath string, flag int, perm os.FileMode) (*os.File, error) {
	if !openat2Available() {
		return openNoFollowFallback(absPath, flag, perm)
	}

	fd, err := unix.Openat2(unix.AT_FDCWD, absPath, &unix.OpenHow{
		// #nosec G115 - flag conversion is intentional and safe within valid flag range
		Flags:   uint64(flag | unix.O_CLOEXEC),
		Mode:    uint64(perm.Perm()),
		Resolve: unix.RESOLVE_NO_SYMLINKS,
	})
	if err != nil {
		switch {
		case errors.Is(err, unix.ELOOP):
			return nil, fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
		case errors.Is(err, unix.ENOENT):
			return nil, &os.PathError{Op: "open", Path: absPath, Err: os.ErrNotExist}
		}
		return nil, &os.PathError{Op: "open", Path: absPath, Err: err}
	}
	return os.NewFile(uintptr(fd), absPath), nil
}
