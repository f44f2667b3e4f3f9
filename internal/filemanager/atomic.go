package filemanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// WriteFileAtomic writes data to a temp file in the destination directory,
// syncs it and renames it over path. Readers observe either the old or the
// new content, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteFileAtomicAt(path, data, perm, time.Time{})
}

// WriteFileAtomicAt is WriteFileAtomic with the modification time of the
// published file set to modTime. A zero modTime keeps the write time.
func WriteFileAtomicAt(path string, data []byte, perm os.FileMode, modTime time.Time) error {
	tempFile, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}

	if !modTime.IsZero() {
		if err := os.Chtimes(tempFile, modTime, modTime); err != nil {
			_ = os.Remove(tempFile)
			return fmt.Errorf("failed to set modification time: %w", err)
		}
	}

	if err := replaceFile(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// CreateExclusive publishes data at path only if nothing exists there yet.
// The content is staged in a temp file and hard-linked into place, so the
// destination appears complete or not at all. Returns ErrExists when the
// destination is already present.
func CreateExclusive(path string, data []byte, perm os.FileMode) error {
	tempFile, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tempFile) }()

	if err := os.Link(tempFile, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		// Some mounts (SMB, drvfs) refuse hard links
		return createExclusiveDirect(path, data, perm)
	}

	return nil
}

// createExclusiveDirect relies on O_EXCL alone. A crash mid-write can leave
// a truncated file behind, which is why the link path is preferred.
func createExclusiveDirect(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return f.Close()
}

// MoveExclusive renames src to dst. The rename itself is the atomic step:
// when several callers race on the same src exactly one succeeds and the
// others observe os.ErrNotExist.
func MoveExclusive(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.Rename(src, dst)
}

func writeTemp(path string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	// Unique temp name so concurrent writers never share a temp file
	tempFile := fmt.Sprintf("%s.%d.%d.tmp", path, os.Getpid(), time.Now().UnixNano())
	f, err := os.OpenFile(tempFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tempFile)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tempFile)
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempFile)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return tempFile, nil
}

// Lock is an advisory inter-process lock backed by a lock file.
type Lock struct {
	fl *flock.Flock
}

// TryLock attempts to take the exclusive lock at path without waiting.
// It returns (nil, false, nil) when another holder owns the lock.
func TryLock(path string) (*Lock, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, false, nil
	}
	return &Lock{fl: fl}, true, nil
}

// AcquireLock waits up to timeout for the exclusive lock at path.
func AcquireLock(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fl := flock.New(path)
	locked, err := fl.TryLockContext(lockCtx, lockPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Unlock releases the lock. The lock file is left in place.
func (l *Lock) Unlock() error {
	return l.fl.Unlock()
}

// Release unlocks and removes the lock file. Only call this once the
// resource the lock guards no longer exists.
func (l *Lock) Release() error {
	path := l.fl.Path()
	// Remove while still held so no one can lock the soon-dead inode first
	_ = os.Remove(path)
	return l.fl.Unlock()
}
