package errors

import (
	stdErrors "errors"
	"fmt"
)

// TableNotFoundError indicates that a table's backing file does not exist.
type TableNotFoundError struct {
	Path string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found: %s", e.Path)
}

// NewTableNotFoundError creates a TableNotFoundError for the given path.
func NewTableNotFoundError(path string) *TableNotFoundError {
	return &TableNotFoundError{Path: path}
}

// IsTableNotFound reports whether err is a TableNotFoundError (even when wrapped).
func IsTableNotFound(err error) bool {
	var notFound *TableNotFoundError
	return stdErrors.As(err, &notFound)
}
