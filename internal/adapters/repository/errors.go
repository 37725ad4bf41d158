package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrPersist        = errors.New("persist record failed")
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
