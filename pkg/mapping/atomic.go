package mapping

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	// TempFilePrefix names the staging files written next to a mapping file.
	TempFilePrefix = "ub-mapping-tmp-"

	// LockSuffix is appended to a mapping path to name its lock file.
	LockSuffix = ".lock"

	lockRetryInterval = 50 * time.Millisecond
)

// replaceFile swaps the content of path for data while holding the
// path's lock file. The bytes are staged in the same directory and renamed
// over path, so readers see the old or the new document and never a mix.
func replaceFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	lock := flock.New(path + LockSuffix)
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", path)
	}
	defer lock.Unlock()

	staged, err := stage(filepath.Dir(path), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(staged, path); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// stage writes data to a synced temporary file in dir and returns its name.
// Nothing is left behind on failure.
func stage(dir string, data []byte, perm os.FileMode) (name string, err error) {
	f, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return "", fmt.Errorf("stage mapping: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	err = f.Chmod(perm)
	if err == nil {
		_, err = f.Write(data)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("stage mapping: %w", err)
	}
	return f.Name(), nil
}
