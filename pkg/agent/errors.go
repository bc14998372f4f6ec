package agent

import "errors"

// Common error classes for pipeline calls.
var (
	// ErrRecoverable indicates a temporary pipeline failure that may
	// succeed if retried: network timeout, rate limiting, temporary
	// service unavailability.
	ErrRecoverable = errors.New("recoverable pipeline error")

	// ErrFatal indicates a permanent failure that will not succeed if
	// retried: invalid API key, unsupported audio format, malformed
	// request.
	ErrFatal = errors.New("fatal pipeline error")
)

// IsRecoverable checks if an error is worth retrying.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrRecoverable)
}

// IsFatal checks if an error should fail fast.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
