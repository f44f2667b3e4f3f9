//go:build !windows

package filemanager

import "os"

// readFile reads path. rename(2) never exposes a half-replaced file to readers.
func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// replaceFile renames src over dst in one step.
func replaceFile(src, dst string) error {
	return os.Rename(src, dst)
}
