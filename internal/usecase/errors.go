package usecase

import "errors"

// Denials share one message per flow so a caller cannot tell which check
// failed.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrVerificationFailed = errors.New("verification failed")

	ErrAccountInactive = errors.New("account is deactivated")
	ErrEmailTaken      = errors.New("email already registered")
	ErrIDNumberTaken   = errors.New("id number already registered")
	ErrNotFound        = errors.New("not found")
	ErrDeliveryFailed  = errors.New("notification delivery failed")
	ErrValidation      = errors.New("validation failed")
)
