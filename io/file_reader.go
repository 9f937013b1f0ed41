package io

import (
	"errors"
	"fmt"
	"os"
)

var ErrNotOpened = errors.New("file not opened")

type FileReader struct {
	path   string
	file   *os.File
	opened bool

	size int64
}

func NewFileReader(path string) *FileReader {
	return &FileReader{
		path: path,
	}
}

func (f *FileReader) Open() (topErr error) {

	f.file, topErr = os.OpenFile(f.path, os.O_RDONLY, 0)
	if topErr != nil {
		return topErr
	}

	stat, topErr := f.file.Stat()
	if topErr != nil {
		f.file.Close()
		return topErr
	}

	f.size = stat.Size()
	f.opened = true

	return nil
}

func (f *FileReader) Path() string {
	return f.path
}

func (f *FileReader) Size() int64 {
	return f.size
}

func (f *FileReader) Close() error {
	if !f.opened {
		return nil
	}

	f.opened = false
	return f.file.Close()
}

// ReadAt fills out completely from off or fails.
func (f *FileReader) ReadAt(out []byte, off int64) error {
	if !f.opened {
		return ErrNotOpened
	}

	if off < 0 || off+int64(len(out)) > f.size {
		return fmt.Errorf("read of %d bytes at %d is outside of %d byte file %s", len(out), off, f.size, f.path)
	}

	readBytes, err := f.file.ReadAt(out, off)
	if readBytes != len(out) {
		if err == nil {
			err = errors.New("read bytes mismatch")
		}
		return err
	}

	return nil
}

// ReadAll reads the whole file into memory.
func ReadAll(path string) ([]byte, error) {
	return os.ReadFile(path)
}
