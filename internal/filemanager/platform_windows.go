//go:build windows

package filemanager

import (
	"errors"
	"os"
	"syscall"
	"time"
)

// Windows refuses to open or replace a file another process holds open
// (a virus scanner, a second poller reading the same slot).
const (
	errorAccessDenied     = syscall.Errno(5)
	errorSharingViolation = syscall.Errno(32)

	sharingAttempts = 5
	sharingDelay    = 10 * time.Millisecond
)

func readFile(path string) ([]byte, error) {
	var data []byte
	err := withSharingRetry(func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}

// replaceFile renames src over dst. os.Rename uses MOVEFILE_REPLACE_EXISTING.
func replaceFile(src, dst string) error {
	return withSharingRetry(func() error {
		return os.Rename(src, dst)
	})
}

func withSharingRetry(op func() error) error {
	delay := sharingDelay
	var err error
	for i := 0; i < sharingAttempts; i++ {
		if err = op(); err == nil || !isSharingViolation(err) {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

func isSharingViolation(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == errorSharingViolation || errno == errorAccessDenied
}
