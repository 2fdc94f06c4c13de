package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/ritani-feeds/pkg/errors"
)

// maxRotateAttempts bounds the counter appended when timestamped names collide.
const maxRotateAttempts = 1000

// RotateExisting moves an existing file at path out of the way so a new file can
// be created under the same name. The file is renamed in place to
// <base>-<unix millis><ext>; if that name is taken too, -1, -2, ... is appended.
// It returns the new name of the previous file, or "" if nothing existed at path.
// Nothing is ever deleted.
func RotateExisting(path string, now time.Time) (string, error) {
	if path == "" {
		return "", errors.ErrEmptyPaths
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, errors.ErrNotRegularFile)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stamp := strconv.FormatInt(now.UnixMilli(), 10)

	for i := 0; i < maxRotateAttempts; i++ {
		candidate := base + "-" + stamp + ext
		if i > 0 {
			candidate = base + "-" + stamp + "-" + strconv.Itoa(i) + ext
		}
		if _, err := os.Lstat(candidate); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
		if err := os.Rename(path, candidate); err != nil {
			return "", fmt.Errorf("failed to rename %s to %s: %w", path, candidate, err)
		}
		return candidate, nil
	}

	return "", fmt.Errorf("no free name to rotate %s into", path)
}

// FileSize returns the size in bytes of the regular file at path as reported
// by the file system.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s: %w", path, errors.ErrFileNotFound)
		}
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: %w", path, errors.ErrNotRegularFile)
	}
	return info.Size(), nil
}

// CreateFilePerm creates a new file with the specified permissions, truncating
// any file already present.
func CreateFilePerm(name string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}
