package errors

import "errors"

// BatchOpenError indicates an operation that refuses to run while a batch
// is open (e.g., replacing the grid mid-batch).
type BatchOpenError struct {
	Operation string
}

func (e *BatchOpenError) Error() string {
	return e.Operation + " refused: batch in progress"
}

// NewBatchOpenError creates a BatchOpenError for the named operation.
func NewBatchOpenError(operation string) *BatchOpenError {
	return &BatchOpenError{Operation: operation}
}

// IsBatchOpen reports whether err is a BatchOpenError (even when wrapped).
func IsBatchOpen(err error) bool {
	var batchErr *BatchOpenError
	return errors.As(err, &batchErr)
}
