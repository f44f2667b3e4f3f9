package filemanager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestData struct {
	Name    string `yaml:"name"`
	Value   int    `yaml:"value"`
	Updated bool   `yaml:"updated"`
}

func TestManager_ReadWrite(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "state", "test.yaml")

	mgr := NewManagerWithTimeout[TestData](5 * time.Second)

	data := &TestData{
		Name:  "test",
		Value: 42,
	}
	require.NoError(t, mgr.Write(context.Background(), testFile, data))

	readData, err := mgr.Read(context.Background(), testFile)
	require.NoError(t, err)
	assert.Equal(t, data, readData)
}

func TestManager_ReadMissing(t *testing.T) {
	mgr := NewManagerWithTimeout[TestData](5 * time.Second)

	_, err := mgr.Read(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_Update(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")

	mgr := NewManagerWithTimeout[TestData](5 * time.Second)

	// Update on a missing file starts from the zero value
	err := mgr.Update(context.Background(), testFile, func(data *TestData) error {
		data.Name = "created"
		data.Value = 100
		return nil
	})
	require.NoError(t, err)

	readData, err := mgr.Read(context.Background(), testFile)
	require.NoError(t, err)
	assert.Equal(t, "created", readData.Name)
	assert.Equal(t, 100, readData.Value)

	err = mgr.Update(context.Background(), testFile, func(data *TestData) error {
		data.Value = 200
		data.Updated = true
		return nil
	})
	require.NoError(t, err)

	readData, err = mgr.Read(context.Background(), testFile)
	require.NoError(t, err)
	assert.Equal(t, 200, readData.Value)
	assert.True(t, readData.Updated)
}

func TestManager_ConcurrentUpdates(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")

	mgr := NewManagerWithTimeout[TestData](5 * time.Second)
	require.NoError(t, mgr.Write(context.Background(), testFile, &TestData{Value: 0}))

	const numGoroutines = 10
	const incrementsPerGoroutine = 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < incrementsPerGoroutine; j++ {
				err := mgr.Update(context.Background(), testFile, func(data *TestData) error {
					data.Value++
					return nil
				})
				if err != nil {
					t.Errorf("Update failed: %v", err)
				}
			}
		}()
	}

	wg.Wait()

	readData, err := mgr.Read(context.Background(), testFile)
	require.NoError(t, err)
	assert.Equal(t, numGoroutines*incrementsPerGoroutine, readData.Value)
}

func TestManager_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")

	mgr := NewManagerWithTimeout[TestData](5 * time.Second)
	require.NoError(t, mgr.Write(context.Background(), testFile, &TestData{Name: "test"}))

	require.NoError(t, mgr.Delete(context.Background(), testFile))

	_, err := mgr.Read(context.Background(), testFile)
	assert.True(t, os.IsNotExist(err))

	// Delete non-existent file should not error
	assert.NoError(t, mgr.Delete(context.Background(), testFile))
}

func TestManager_UpdateError(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")

	mgr := NewManagerWithTimeout[TestData](5 * time.Second)
	require.NoError(t, mgr.Write(context.Background(), testFile, &TestData{Name: "test"}))

	testErr := errors.New("update error")
	err := mgr.Update(context.Background(), testFile, func(data *TestData) error {
		return testErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, testErr)

	// The file is left untouched
	readData, err := mgr.Read(context.Background(), testFile)
	require.NoError(t, err)
	assert.Equal(t, "test", readData.Name)
}

func TestManager_LockTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")

	mgr := NewManagerWithTimeout[TestData](50 * time.Millisecond)
	require.NoError(t, mgr.Write(context.Background(), testFile, &TestData{Name: "test"}))

	held, ok, err := TryLock(testFile + ".lock")
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = held.Unlock() }()

	err = mgr.Update(context.Background(), testFile, func(data *TestData) error {
		data.Value = 1
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "file.md")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	// No temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomicAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slot.md")
	stamp := time.Date(2025, 7, 1, 14, 32, 10, 0, time.UTC)

	require.NoError(t, WriteFileAtomicAt(path, []byte("hi"), 0o644, stamp))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(stamp), "got %s", info.ModTime())
	assert.Equal(t, int64(2), info.Size())
}

func TestCreateExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive", "entry.md")

	require.NoError(t, CreateExclusive(path, []byte("original"), 0o644))

	err := CreateExclusive(path, []byte("replacement"), 0o644)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExists)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be cleaned up")
}

func TestMoveExclusive_SingleWinner(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "slot.md")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	const racers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		dst := filepath.Join(tmpDir, "staging", time.Now().Format("150405.000000000")+string(rune('a'+i))+".md")
		go func() {
			defer wg.Done()
			err := MoveExclusive(src, dst)
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
				return
			}
			if !os.IsNotExist(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "mailbox.lock")

	first, ok, err := TryLock(path)
	require.NoError(t, err)
	require.True(t, ok)

	second, ok, err := TryLock(path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, second)

	require.NoError(t, first.Unlock())

	third, ok, err := TryLock(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, third.Release())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireLock_Timeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailbox.lock")

	held, err := AcquireLock(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer func() { _ = held.Unlock() }()

	_, err = AcquireLock(context.Background(), path, 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)
}
