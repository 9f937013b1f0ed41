//go:build !unix

package io

import "os"

// DirLock only keeps the lock file open on platforms without flock.
type DirLock struct {
	file *os.File
}

func AcquireLock(path string) (*DirLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &DirLock{file: f}, nil
}

func (l *DirLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
