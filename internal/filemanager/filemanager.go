// Package filemanager provides process-safe file primitives for the shared
// mailbox directory: atomic replacement, exclusive creation, advisory locks
// and flock-guarded YAML state files.
package filemanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// ErrLockTimeout is returned when acquiring a file lock times out
var ErrLockTimeout = errors.New("timeout acquiring file lock")

// ErrExists is returned by CreateExclusive when the destination already exists
var ErrExists = errors.New("file already exists")

// lockPollInterval is how often a blocked lock acquisition retries
const lockPollInterval = 20 * time.Millisecond

// UpdateFunc is a function that modifies data in-place
type UpdateFunc[T any] func(data *T) error

// Manager reads and writes YAML state files. Every operation is serialised
// through a sidecar "<path>.lock" file, so the lock survives the atomic
// rename that replaces the state file itself.
type Manager[T any] struct {
	// lockTimeout is the maximum time to wait for a file lock
	lockTimeout time.Duration
}

// NewManagerWithTimeout creates a new file manager with custom lock timeout
func NewManagerWithTimeout[T any](timeout time.Duration) *Manager[T] {
	return &Manager[T]{
		lockTimeout: timeout,
	}
}

// Read reads a state file under a shared lock. A missing file is reported
// with an error satisfying os.IsNotExist.
func (m *Manager[T]) Read(ctx context.Context, path string) (*T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	lock, err := m.acquire(ctx, path, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	return m.load(path)
}

// Write replaces a state file under an exclusive lock
func (m *Manager[T]) Write(ctx context.Context, path string, data *T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	lock, err := m.acquire(ctx, path, false)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	return m.store(path, data)
}

// Update reads a state file, applies updateFunc and writes the result back
// while holding the exclusive lock for the whole read-modify-write cycle.
// A missing file starts from the zero value of T.
func (m *Manager[T]) Update(ctx context.Context, path string, updateFunc UpdateFunc[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	lock, err := m.acquire(ctx, path, false)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	data, err := m.load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read file: %w", err)
		}
		data = new(T)
	}

	if err := updateFunc(data); err != nil {
		return fmt.Errorf("update function failed: %w", err)
	}

	return m.store(path, data)
}

// Delete removes a state file with an exclusive lock
func (m *Manager[T]) Delete(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	lock, err := m.acquire(ctx, path, false)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	return nil
}

func (m *Manager[T]) acquire(ctx context.Context, path string, shared bool) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")

	lockCtx, cancel := context.WithTimeout(ctx, m.lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = lock.TryRLockContext(lockCtx, lockPollInterval)
	} else {
		locked, err = lock.TryLockContext(lockCtx, lockPollInterval)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}

	return lock, nil
}

func (m *Manager[T]) load(path string) (*T, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var result T
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	return &result, nil
}

func (m *Manager[T]) store(path string, data *T) error {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}

	return WriteFileAtomic(path, yamlData, 0o644)
}
