package manager

import (
	"errors"
	"fmt"

	"github.com/dot5enko/colstore/manager/meta"
)

var (
	ErrStoreClosed = errors.New("store is closed")

	// ErrStoreLocked is returned by Open when another process holds the directory.
	ErrStoreLocked = errors.New("store is locked by another process")

	ErrInvalidConfig = errors.New("invalid store config")

	ErrCorruptSegment = meta.ErrCorruptSegment
	ErrIOFailure      = meta.ErrIOFailure
	ErrRowNotFound    = meta.ErrRowNotFound
)

// IngestError reports one recovered ingestion problem. The field was stored as null
// or, for unknown columns, ignored.
type IngestError struct {
	Row    int
	Column string
	Value  any

	Err error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("row %d, column `%s`: %s", e.Row, e.Column, e.Err.Error())
}

func (e *IngestError) Unwrap() error {
	return e.Err
}
