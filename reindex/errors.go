package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when RetryWithBackoff is called
	// with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
