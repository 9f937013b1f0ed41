package io

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "INDEX")

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileReaderBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	r := NewFileReader(path)
	out := make([]byte, 4)
	assert.ErrorIs(t, r.ReadAt(out, 0), ErrNotOpened)

	require.NoError(t, r.Open())
	defer r.Close()

	assert.Equal(t, int64(10), r.Size())
	require.NoError(t, r.ReadAt(out, 3))
	assert.Equal(t, "3456", string(out))

	assert.Error(t, r.ReadAt(out, 8))
}

func TestLockIsExclusive(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("flock is not available")
	}

	path := filepath.Join(t.TempDir(), "LOCK")

	first, err := AcquireLock(path)
	require.NoError(t, err)

	_, err = AcquireLock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())

	again, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestIsTempFile(t *testing.T) {
	assert.True(t, IsTempFile("INDEX.tmp-123"))
	assert.False(t, IsTempFile("1.seg"))
}
