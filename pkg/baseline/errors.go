package baseline

import "errors"

// Error kinds surfaced by the baseline store and comparator.
// A detected regression is never an error; it is reported through the
// Verdict so callers can decide what to do with it.
var (
	// ErrStorage indicates the baseline file could not be read or written.
	// Storage errors abort the evaluation entirely and are not retried.
	ErrStorage = errors.New("baseline storage error")

	// ErrValidation indicates a malformed metric record, for example a
	// negative or missing latency value. Validation happens before any
	// comparison so a bad record can never corrupt a stored baseline.
	ErrValidation = errors.New("invalid metric record")
)

// IsStorage reports whether err is a baseline storage error.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsValidation reports whether err is a metric record validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
