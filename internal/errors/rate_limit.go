package errors

import "errors"

// RateLimitError indicates a mirror target refused an insert because the
// caller is sending too fast. The export can be retried later.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// NewRateLimitError creates a RateLimitError with the given message.
func NewRateLimitError(message string) *RateLimitError {
	return &RateLimitError{Message: message}
}

// IsRateLimited reports whether err is a RateLimitError (even when wrapped).
func IsRateLimited(err error) bool {
	var limited *RateLimitError
	return errors.As(err, &limited)
}
