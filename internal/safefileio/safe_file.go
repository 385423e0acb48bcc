package safefileio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
)

// MaxFileSize is the maximum allowed file size for SafeReadFile (128 MB)
const MaxFileSize = 128 * 1024 * 1024

// SafeReadFile reads a regular file of at most MaxFileSize bytes. No
// component of the path may be a symbolic link.
func SafeReadFile(filePath string) ([]byte, error) {
	return safeReadFile(filePath, MaxFileSize)
}

func safeReadFile(filePath string, limit int64) ([]byte, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := openNoFollow(absPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("Failed to close file", "path", absPath, "error", closeErr)
		}
	}()

	return readFileContent(file, absPath, limit)
}

// readFileContent reads and validates the content of an already opened file
func readFileContent(file *os.File, filePath string, limit int64) ([]byte, error) {
	fileInfo, err := validateFile(file, filePath)
	if err != nil {
		return nil, err
	}

	if fileInfo.Size() > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, filePath, fileInfo.Size())
	}

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// The file may have grown between Stat and ReadAll.
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, filePath)
	}

	return content, nil
}

// CreateFile creates or truncates a regular file for writing without
// following symlinks in any component of the path.
func CreateFile(filePath string, perm os.FileMode) (*os.File, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}
	file, err := openNoFollow(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	if _, err := validateFile(file, absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// AtomicWrite creates or replaces filePath with whatever write produces.
// The content is written to a temporary file in the same directory, synced,
// and moved into place only when write succeeds; on any error the temporary
// file is removed and filePath is left untouched. Without overwrite an
// existing filePath is an ErrFileExists error.
func AtomicWrite(filePath string, perm os.FileMode, overwrite bool, write func(f *os.File) error) (err error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}
	if err := verifyPathComponents(absPath); err != nil {
		return err
	}
	if err := checkTarget(absPath, overwrite); err != nil {
		return err
	}

	dir, base := filepath.Split(absPath)
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		if closeErr := tmp.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("Failed to close temporary file", "path", tmpPath, "error", closeErr)
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("Failed to remove temporary file", "path", tmpPath, "error", rmErr)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := commit(tmpPath, absPath, perm, overwrite); err != nil {
		return err
	}
	committed = true
	return nil
}

// linkFile is os.Link, replaceable in tests.
var linkFile = os.Link

// commit moves the finished temporary file into place. Without overwrite a
// hard link is used so that a file created concurrently at dst is never
// replaced. Filesystems without hard links (FAT on SD cards) get an
// exclusive create and copy instead.
func commit(tmpPath, dst string, perm os.FileMode, overwrite bool) error {
	if overwrite {
		if err := os.Rename(tmpPath, dst); err != nil {
			return fmt.Errorf("failed to move output into place: %w", err)
		}
		return nil
	}

	if err := linkFile(tmpPath, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, dst)
		}
		slog.Debug("Hard link failed, copying output instead", "path", dst, "error", err)
		if err := copyExclusive(tmpPath, dst, perm); err != nil {
			return err
		}
	}
	if err := os.Remove(tmpPath); err != nil {
		slog.Warn("Failed to remove temporary file", "path", tmpPath, "error", err)
	}
	return nil
}

// copyExclusive creates dst with O_EXCL and copies src into it. A partly
// written dst is removed.
func copyExclusive(src, dst string, perm os.FileMode) (err error) {
	in, err := os.Open(src) // #nosec G304 - src is the temporary file created by AtomicWrite
	if err != nil {
		return fmt.Errorf("failed to reopen temporary file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := openNoFollow(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, dst)
		}
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if err == nil {
			return
		}
		_ = out.Close()
		if rmErr := os.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("Failed to remove partial output", "path", dst, "error", rmErr)
		}
	}()

	if err := out.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy output into place: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

// checkTarget rejects destinations that are symlinks or non-regular files,
// and existing files unless overwrite is set.
func checkTarget(absPath string, overwrite bool) error {
	fi, err := os.Lstat(absPath)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat %s: %w", absPath, err)
	case fi.Mode()&os.ModeSymlink != 0:
		return fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
	case !fi.Mode().IsRegular():
		return fmt.Errorf("%w: not a regular file: %s", ErrInvalidFilePath, absPath)
	case !overwrite:
		return fmt.Errorf("%w: %s", ErrFileExists, absPath)
	}
	return nil
}

// openNoFollowFallback opens the final component with O_NOFOLLOW and then
// verifies the directory components. Checking after opening means a
// component swapped for a symlink before the open is still detected.
func openNoFollowFallback(absPath string, flag int, perm os.FileMode) (*os.File, error) {
	// #nosec G304 - absPath is cleaned by filepath.Abs and its components are verified below
	file, err := os.OpenFile(absPath, flag|syscall.O_NOFOLLOW, perm)
	if err != nil {
		if isNoFollowError(err) {
			return nil, fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
		}
		return nil, err
	}
	if err := verifyPathComponents(absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// verifyPathComponents checks if any directory component of the path is a symlink.
func verifyPathComponents(absPath string) error {
	current := filepath.Dir(absPath)
	for {
		parent := filepath.Dir(current)
		if parent == current {
			break // Reached root directory
		}

		fi, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				return nil // Directory doesn't exist, we can stop checking
			}
			return fmt.Errorf("failed to stat %s: %w", current, err)
		}

		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s", ErrIsSymlink, current)
		}

		current = parent
	}

	return nil
}

// validateFile checks if the file is a regular file and returns its FileInfo.
// The descriptor is used rather than the path so the check applies to what
// was actually opened.
func validateFile(file *os.File, filePath string) (os.FileInfo, error) {
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file: %s", ErrInvalidFilePath, filePath)
	}

	return fileInfo, nil
}
