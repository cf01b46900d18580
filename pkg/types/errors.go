package types

import "errors"

// Error taxonomy for the store and query layers. All errors returned by the
// record store wrap exactly one of these sentinels so callers can classify
// failures with errors.Is.
var (
	// ErrValidation is returned when input fails a domain rule: a missing
	// required field, a non-positive weight, a malformed date, or an
	// inverted date range.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record does not exist: an
	// unknown customer id on collection add, or an unknown collection id
	// on update.
	ErrNotFound = errors.New("record not found")

	// ErrStorage is returned when the backing store fails to read or write.
	// Not locally recoverable; the failed operation leaves prior state intact.
	ErrStorage = errors.New("storage failure")
)
