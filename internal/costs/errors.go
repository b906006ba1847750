package costs

import "errors"

var (
	// ErrNotFound indicates the import does not exist.
	ErrNotFound = errors.New("import not found")
	// ErrDuplicateImport indicates a file with the same checksum was already ingested.
	ErrDuplicateImport = errors.New("duplicate import")
)
