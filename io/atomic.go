package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SyncDir persists directory entries after creating or renaming files.
func SyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Sync()
}

// WriteFileAtomic replaces path with data: tmp file, fsync, rename, dir fsync.
// Readers observe either the previous content or the new one.
func WriteFileAtomic(path string, data []byte) (topErr error) {
	dir := filepath.Dir(path)

	tmp, topErr := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if topErr != nil {
		return fmt.Errorf("unable to create temp file for %s: %w", path, topErr)
	}
	tmpPath := tmp.Name()

	defer func() {
		if topErr != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, topErr = tmp.Write(data); topErr != nil {
		tmp.Close()
		return fmt.Errorf("unable to write %s: %w", tmpPath, topErr)
	}

	if topErr = tmp.Sync(); topErr != nil {
		tmp.Close()
		return fmt.Errorf("unable to sync %s: %w", tmpPath, topErr)
	}

	if topErr = tmp.Close(); topErr != nil {
		return fmt.Errorf("unable to close %s: %w", tmpPath, topErr)
	}

	if topErr = os.Rename(tmpPath, path); topErr != nil {
		return fmt.Errorf("unable to rename %s: %w", tmpPath, topErr)
	}

	return SyncDir(dir)
}

// RemoveIfExists deletes path, ignoring missing files.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsTempFile reports leftovers of an interrupted WriteFileAtomic.
func IsTempFile(name string) bool {
	matched, _ := filepath.Match("*.tmp-*", name)
	return matched
}
