package security

import "errors"

var (
	// ErrStoreUnavailable is returned when the security state could not be
	// loaded or persisted. Callers retry or fail the attempt; it is never a
	// verification denial.
	ErrStoreUnavailable = errors.New("state store unavailable")

	ErrIdentityNotFound = errors.New("identity not found")

	// ErrNoPendingOTP is returned by ReissueOTP when there is no code left to
	// replace.
	ErrNoPendingOTP = errors.New("no pending otp")
)
