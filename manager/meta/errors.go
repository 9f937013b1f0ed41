package meta

import "errors"

var (
	// ErrCorruptSegment is returned for checksum or decode mismatches of stored data.
	ErrCorruptSegment = errors.New("corrupt segment")

	ErrIOFailure = errors.New("io failure")

	ErrRowNotFound = errors.New("row not found")
)
