package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict: el documento cambió desde que se cargó.
	ErrVersionConflict = errors.New("version conflict")
)
