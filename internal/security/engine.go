// Package security holds the account-security state machine: OTP issuance
// and verification, failed-login tracking, and lockout.
//
// Engine methods mutate an entity.SecurityState in memory and never touch
// storage; callers run them inside a read-modify-write against the user row.
package security

import (
	"fmt"

	"bank-backoffice/internal/data/entity"
	"bank-backoffice/pkg/secret"
	"bank-backoffice/pkg/utils"
)

const OTPDigits = 6

type CodeGenerator func() (string, error)

type OTPResult int

const (
	OTPAccepted OTPResult = iota
	OTPNotPending
	OTPExpired
	OTPAttemptsExceeded
	OTPMismatch
)

func (r OTPResult) String() string {
	switch r {
	case OTPAccepted:
		return "accepted"
	case OTPNotPending:
		return "not_pending"
	case OTPExpired:
		return "expired"
	case OTPAttemptsExceeded:
		return "attempts_exceeded"
	case OTPMismatch:
		return "mismatch"
	default:
		return fmt.Sprintf("OTPResult(%d)", int(r))
	}
}

// FailedLogin describes the state after a failed login was recorded.
type FailedLogin struct {
	Attempts   int
	Locked     bool
	JustLocked bool
	Notify     bool
}

// Lockout is the outcome of CheckLockout. UnlockDue is set when the account
// should be unlocked and the unlock has to be persisted.
type Lockout struct {
	Locked    bool
	UnlockDue bool
}

type Engine struct {
	policy   Policy
	hasher   secret.Hasher
	clock    Clock
	generate CodeGenerator
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithCodeGenerator(g CodeGenerator) Option {
	return func(e *Engine) { e.generate = g }
}

func NewEngine(policy Policy, hasher secret.Hasher, opts ...Option) *Engine {
	e := &Engine{
		policy: policy,
		hasher: hasher,
		clock:  SystemClock{},
		generate: func() (string, error) {
			return utils.GenerateOTP(OTPDigits)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// IssueOTP replaces any pending OTP with a fresh code and returns the
// plaintext. Only the hash is kept on the state.
func (e *Engine) IssueOTP(s *entity.SecurityState) (string, error) {
	code, err := e.replaceOTP(s)
	if err != nil {
		return "", err
	}
	s.OTPAttempts = 0
	return code, nil
}

// ReissueOTP swaps the pending code for a fresh one with a new expiry. The
// attempt counter carries over, so resending never buys extra guesses.
func (e *Engine) ReissueOTP(s *entity.SecurityState) (string, error) {
	if !s.HasPendingOTP() || s.OTPAttempts >= e.policy.MaxOTPAttempts {
		return "", ErrNoPendingOTP
	}
	return e.replaceOTP(s)
}

func (e *Engine) replaceOTP(s *entity.SecurityState) (string, error) {
	code, err := e.generate()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	hash, err := e.hasher.Hash(code)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}

	expiry := e.clock.Now().Add(e.policy.OTPLifetime)
	s.OTPHash = hash
	s.OTPExpiry = &expiry

	return code, nil
}

// VerifyOTP checks code against the pending OTP. Expiry is checked before
// the attempt ceiling, which is checked before the hash, so an expired code
// is rejected even when it matches. Every outcome except OTPMismatch below
// the ceiling clears the OTP.
func (e *Engine) VerifyOTP(s *entity.SecurityState, code string) OTPResult {
	if !s.HasPendingOTP() {
		return OTPNotPending
	}

	if e.clock.Now().After(*s.OTPExpiry) {
		s.ClearOTP()
		return OTPExpired
	}

	if s.OTPAttempts >= e.policy.MaxOTPAttempts {
		s.ClearOTP()
		return OTPAttemptsExceeded
	}

	if ok, err := e.hasher.Verify(code, s.OTPHash); err == nil && ok {
		s.ClearOTP()
		return OTPAccepted
	}

	s.OTPAttempts++
	if s.OTPAttempts >= e.policy.MaxOTPAttempts {
		s.ClearOTP()
	}
	return OTPMismatch
}

func (e *Engine) SetSecurityAnswer(s *entity.SecurityState, answer string) error {
	hash, err := secret.HashAnswer(e.hasher, answer)
	if err != nil {
		return fmt.Errorf("hash security answer: %w", err)
	}
	s.SecurityAnswerHash = hash
	return nil
}

func (e *Engine) VerifySecurityAnswer(s *entity.SecurityState, answer string) bool {
	if s.SecurityAnswerHash == "" {
		return false
	}
	return secret.VerifyAnswer(e.hasher, answer, s.SecurityAnswerHash)
}

func (e *Engine) RecordFailedLogin(s *entity.SecurityState) FailedLogin {
	wasLocked := s.AccountStatus == entity.StatusLocked

	now := e.clock.Now()
	s.LoginAttempts++
	s.LastFailedLogin = &now
	if s.LoginAttempts >= e.policy.MaxLoginAttempts {
		s.AccountStatus = entity.StatusLocked
	}

	locked := s.AccountStatus == entity.StatusLocked
	justLocked := locked && !wasLocked

	return FailedLogin{
		Attempts:   s.LoginAttempts,
		Locked:     locked,
		JustLocked: justLocked,
		Notify:     e.policy.NotifyEveryFailure || justLocked,
	}
}

func (e *Engine) RecordSuccessfulLogin(s *entity.SecurityState) {
	s.LoginAttempts = 0
	s.LastFailedLogin = nil
	s.AccountStatus = entity.StatusActive
}

// UnlockAccount reactivates a locked account and reports whether anything
// changed. Unlocking an active account is a no-op.
func (e *Engine) UnlockAccount(s *entity.SecurityState) bool {
	if s.AccountStatus != entity.StatusLocked {
		return false
	}
	s.AccountStatus = entity.StatusActive
	s.LastFailedLogin = nil
	s.LoginAttempts = 0
	return true
}

// CheckLockout evaluates the lockout guard under the configured mode.
// It does not mutate s; apply UnlockAccount when UnlockDue is set.
func (e *Engine) CheckLockout(s *entity.SecurityState) Lockout {
	if e.policy.LockoutCheck == CheckIntended {
		return e.CheckLockoutIntended(s)
	}
	return e.CheckLockoutLiteral(s)
}

// CheckLockoutLiteral keeps the historical branch logic: ACTIVE accounts are
// locked unless the last failure is older than the lockout duration, LOCKED
// accounts are not. The historical code also unlocked in the elapsed branch,
// which can never change an ACTIVE account, so UnlockDue is never set.
func (e *Engine) CheckLockoutLiteral(s *entity.SecurityState) Lockout {
	if s.AccountStatus == entity.StatusActive {
		if s.LastFailedLogin != nil && e.clock.Now().Sub(*s.LastFailedLogin) > e.policy.LockoutDuration {
			return Lockout{Locked: false}
		}
		return Lockout{Locked: true}
	}
	return Lockout{Locked: false}
}

// CheckLockoutIntended locks LOCKED accounts until the lockout duration has
// passed since the last failure. A LOCKED account without a failure time
// stays locked until unlocked explicitly.
func (e *Engine) CheckLockoutIntended(s *entity.SecurityState) Lockout {
	if s.AccountStatus != entity.StatusLocked {
		return Lockout{Locked: false}
	}
	if s.LastFailedLogin != nil && e.clock.Now().Sub(*s.LastFailedLogin) > e.policy.LockoutDuration {
		return Lockout{Locked: false, UnlockDue: true}
	}
	return Lockout{Locked: true}
}
