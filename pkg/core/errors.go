package core

import "errors"

// Common errors.
var (
	ErrNotFound      = errors.New("key not found")
	ErrReadOnly      = errors.New("storage is in read-only mode")
	ErrInvalidImport = errors.New("invalid import file")
	ErrNoValidNotes  = errors.New("no valid notes found in import")
)
