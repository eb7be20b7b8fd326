package security

import (
	"fmt"
	"time"
)

// LockoutCheckMode selects how CheckLockout interprets the account status.
type LockoutCheckMode string

const (
	// CheckLiteral reports an ACTIVE account as locked unless its last
	// failed login is older than the lockout duration, and a LOCKED account
	// as not locked. This is the behaviour the account model has always had.
	CheckLiteral LockoutCheckMode = "literal"

	// CheckIntended reports a LOCKED account as locked until the lockout
	// duration has elapsed since the last failed login, then unlocks it.
	CheckIntended LockoutCheckMode = "intended"
)

func ParseLockoutCheckMode(s string) (LockoutCheckMode, error) {
	switch LockoutCheckMode(s) {
	case CheckLiteral, CheckIntended:
		return LockoutCheckMode(s), nil
	case "":
		return CheckLiteral, nil
	default:
		return "", fmt.Errorf("unknown lockout check mode %q", s)
	}
}

type Policy struct {
	OTPLifetime      time.Duration
	MaxOTPAttempts   int
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	LockoutCheck     LockoutCheckMode

	// NotifyEveryFailure sends the lockout notice on every failed login
	// instead of only on the attempt that engages the lock.
	NotifyEveryFailure bool
}

func DefaultPolicy() Policy {
	return Policy{
		OTPLifetime:        2 * time.Minute,
		MaxOTPAttempts:     3,
		MaxLoginAttempts:   3,
		LockoutDuration:    24 * time.Hour,
		LockoutCheck:       CheckLiteral,
		NotifyEveryFailure: true,
	}
}

func (p Policy) Validate() error {
	if p.OTPLifetime <= 0 {
		return fmt.Errorf("otp lifetime must be positive, got %s", p.OTPLifetime)
	}
	if p.MaxOTPAttempts < 1 {
		return fmt.Errorf("max otp attempts must be >= 1, got %d", p.MaxOTPAttempts)
	}
	if p.MaxLoginAttempts < 1 {
		return fmt.Errorf("max login attempts must be >= 1, got %d", p.MaxLoginAttempts)
	}
	if p.LockoutDuration <= 0 {
		return fmt.Errorf("lockout duration must be positive, got %s", p.LockoutDuration)
	}
	if _, err := ParseLockoutCheckMode(string(p.LockoutCheck)); err != nil {
		return err
	}
	return nil
}
