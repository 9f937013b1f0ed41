package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dot5enko/colstore/io"
)

const (
	SegmentsDirName  = "segments"
	segmentFileExt   = ".seg"
	deletionsFileExt = ".del"
)

func (sm *SegmentManager) getAbsStoragePath(segments ...string) string {

	pathSegments := []string{sm.storagePath}
	pathSegments = append(pathSegments, segments...)

	return filepath.Join(pathSegments...)
}

func (sm *SegmentManager) createStoragePathIfNotExists(segments ...string) (string, error) {
	storagePath := sm.getAbsStoragePath(segments...)

	if _, err := os.Stat(storagePath); err != nil {
		storageFolderErr := os.MkdirAll(storagePath, 0755)
		if storageFolderErr != nil {
			return "", fmt.Errorf("%w: unable to create directory %s: %w", ErrIOFailure, storagePath, storageFolderErr)
		}
		sm.logger.Debug("created storage folder", "path", storagePath)
	}

	return storagePath, nil
}

func (sm *SegmentManager) GetSegmentPath(id uint64) string {
	return sm.getAbsStoragePath(SegmentsDirName, strconv.FormatUint(id, 10)+segmentFileExt)
}

func (sm *SegmentManager) GetDeletionsPath(id uint64) string {
	return sm.getAbsStoragePath(SegmentsDirName, strconv.FormatUint(id, 10)+deletionsFileExt)
}

// RemoveOrphans deletes segment files the index does not name and temp files
// left by interrupted writes.
func (sm *SegmentManager) RemoveOrphans(live map[uint64]bool) ([]string, error) {

	dir := sm.getAbsStoragePath(SegmentsDirName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: unable to list %s: %w", ErrIOFailure, dir, err)
	}

	removed := []string{}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name := e.Name()
		orphan := io.IsTempFile(name)

		if !orphan {
			ext := filepath.Ext(name)
			if ext != segmentFileExt && ext != deletionsFileExt {
				continue
			}

			id, parseErr := strconv.ParseUint(strings.TrimSuffix(name, ext), 10, 64)
			orphan = parseErr != nil || !live[id]
		}

		if !orphan {
			continue
		}

		if err = io.RemoveIfExists(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("%w: unable to remove orphan %s: %w", ErrIOFailure, name, err)
		}

		sm.logger.Info("removed orphan segment file", "file", name)
		removed = append(removed, name)
	}

	return removed, nil
}
