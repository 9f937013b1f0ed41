package schema

import "errors"

var (
	// ErrSchema is returned for empty declarations, duplicate names and invalid types.
	ErrSchema = errors.New("schema error")

	// ErrUnknownColumn is returned when a column name is not part of the schema.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrCoercion is reported when a value can not be represented in the column type.
	ErrCoercion = errors.New("value coercion failed")

	ErrHeaderChecksum  = errors.New("segment header checksum mismatch")
	ErrMalformedHeader = errors.New("malformed segment header")
)
