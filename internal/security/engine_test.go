package security

import (
	"errors"
	"testing"
	"time"

	"bank-backoffice/internal/data/entity"
	"bank-backoffice/pkg/secret"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T, policy Policy) (*Engine, *fakeClock) {
	t.Helper()
	hasher, err := secret.NewArgon2(secret.Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewEngine(policy, hasher, WithClock(clock)), clock
}

func activeState() *entity.SecurityState {
	return &entity.SecurityState{AccountStatus: entity.StatusActive}
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestIssueOTP(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()
	s.OTPAttempts = 2

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	if len(code) != OTPDigits {
		t.Fatalf("expected %d digit code, got %q", OTPDigits, code)
	}
	if s.OTPHash == "" || s.OTPHash == code {
		t.Fatalf("expected hashed otp, got %q", s.OTPHash)
	}
	if s.OTPExpiry == nil || !s.OTPExpiry.Equal(clock.now.Add(2*time.Minute)) {
		t.Fatalf("unexpected expiry %v", s.OTPExpiry)
	}
	if s.OTPAttempts != 0 {
		t.Fatalf("expected attempts reset, got %d", s.OTPAttempts)
	}
}

func TestIssueOTPKeepsLeadingZeros(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	e.generate = func() (string, error) { return "000042", nil }
	s := activeState()

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	if code != "000042" {
		t.Fatalf("expected 000042, got %q", code)
	}
	if got := e.VerifyOTP(s, "42"); got == OTPAccepted {
		t.Fatal("expected code without leading zeros to be rejected")
	}
	if got := e.VerifyOTP(s, "000042"); got != OTPAccepted {
		t.Fatalf("expected accepted, got %s", got)
	}
}

func TestIssueOTPGeneratorFailure(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	e.generate = func() (string, error) { return "", errors.New("entropy exhausted") }
	s := activeState()

	if _, err := e.IssueOTP(s); err == nil {
		t.Fatal("expected error")
	}
	if s.HasPendingOTP() || s.OTPHash != "" {
		t.Fatal("expected state untouched on failure")
	}
}

func TestVerifyOTPAcceptsOnceThenClears(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}

	if got := e.VerifyOTP(s, code); got != OTPAccepted {
		t.Fatalf("expected accepted, got %s", got)
	}
	if s.HasPendingOTP() || s.OTPHash != "" || s.OTPAttempts != 0 {
		t.Fatalf("expected otp state cleared, got %+v", s)
	}
	if got := e.VerifyOTP(s, code); got != OTPNotPending {
		t.Fatalf("expected replay to be rejected as not pending, got %s", got)
	}
}

func TestVerifyOTPNotPending(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	if got := e.VerifyOTP(s, "123456"); got != OTPNotPending {
		t.Fatalf("expected not pending, got %s", got)
	}
	if s.OTPAttempts != 0 {
		t.Fatalf("expected no attempt counted, got %d", s.OTPAttempts)
	}
}

func TestVerifyOTPExpiredEvenIfCorrect(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	clock.Advance(2*time.Minute + time.Second)

	if got := e.VerifyOTP(s, code); got != OTPExpired {
		t.Fatalf("expected expired, got %s", got)
	}
	if s.HasPendingOTP() || s.OTPHash != "" {
		t.Fatal("expected otp state cleared after expiry")
	}
}

func TestVerifyOTPAtExactExpiryStillValid(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	clock.Advance(2 * time.Minute)

	if got := e.VerifyOTP(s, code); got != OTPAccepted {
		t.Fatalf("expected accepted at the expiry instant, got %s", got)
	}
}

func TestVerifyOTPExpireThenReissue(t *testing.T) {
	policy := DefaultPolicy()
	policy.OTPLifetime = 120 * time.Second
	e, clock := newTestEngine(t, policy)
	s := activeState()

	first, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}

	clock.Advance(121 * time.Second)
	if got := e.VerifyOTP(s, first); got != OTPExpired {
		t.Fatalf("expected expired, got %s", got)
	}
	if s.HasPendingOTP() {
		t.Fatal("expected otp state cleared")
	}

	second, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	if got := e.VerifyOTP(s, second); got != OTPAccepted {
		t.Fatalf("expected reissued otp accepted, got %s", got)
	}
}

func TestVerifyOTPAttemptCeiling(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	bad := wrongCode(code)

	for i := 1; i <= 2; i++ {
		if got := e.VerifyOTP(s, bad); got != OTPMismatch {
			t.Fatalf("attempt %d: expected mismatch, got %s", i, got)
		}
		if s.OTPAttempts != i {
			t.Fatalf("attempt %d: expected counter %d, got %d", i, i, s.OTPAttempts)
		}
		if !s.HasPendingOTP() {
			t.Fatalf("attempt %d: expected otp still pending", i)
		}
	}

	if got := e.VerifyOTP(s, bad); got != OTPMismatch {
		t.Fatalf("attempt 3: expected mismatch, got %s", got)
	}
	if s.HasPendingOTP() || s.OTPAttempts != 0 {
		t.Fatalf("attempt 3: expected otp state cleared, got %+v", s)
	}

	if got := e.VerifyOTP(s, code); got != OTPNotPending {
		t.Fatalf("attempt 4: expected not pending even with correct code, got %s", got)
	}
	if s.OTPAttempts != 0 {
		t.Fatalf("attempt 4: expected no further increment, got %d", s.OTPAttempts)
	}
}

func TestVerifyOTPStoredCounterAtCeiling(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	s.OTPAttempts = 3

	if got := e.VerifyOTP(s, code); got != OTPAttemptsExceeded {
		t.Fatalf("expected attempts exceeded, got %s", got)
	}
	if s.HasPendingOTP() {
		t.Fatal("expected otp state cleared")
	}
}

func TestVerifyOTPDoesNotTouchLoginCounter(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	s.LoginAttempts = 2

	code, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	e.VerifyOTP(s, wrongCode(code))
	e.VerifyOTP(s, code)

	if s.LoginAttempts != 2 {
		t.Fatalf("expected login counter untouched, got %d", s.LoginAttempts)
	}
}

func TestReissueOTPKeepsAttempts(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()

	first, err := e.IssueOTP(s)
	if err != nil {
		t.Fatalf("IssueOTP error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if got := e.VerifyOTP(s, wrongCode(first)); got != OTPMismatch {
			t.Fatalf("attempt %d: expected mismatch, got %s", i+1, got)
		}
	}

	clock.Advance(time.Minute)
	second, err := e.ReissueOTP(s)
	if err != nil {
		t.Fatalf("ReissueOTP error: %v", err)
	}
	if s.OTPAttempts != 2 {
		t.Fatalf("expected attempts carried over, got %d", s.OTPAttempts)
	}
	if !s.OTPExpiry.Equal(clock.now.Add(2 * time.Minute)) {
		t.Fatalf("expected fresh expiry, got %v", s.OTPExpiry)
	}

	// third wrong guess hits the ceiling even though the code was replaced
	if got := e.VerifyOTP(s, wrongCode(second)); got != OTPMismatch {
		t.Fatalf("expected mismatch, got %s", got)
	}
	if s.HasPendingOTP() {
		t.Fatal("expected otp cleared at the ceiling")
	}
	if _, err := e.ReissueOTP(s); !errors.Is(err, ErrNoPendingOTP) {
		t.Fatalf("expected ErrNoPendingOTP after ceiling, got %v", err)
	}
}

func TestReissueOTPWithoutPending(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()

	if _, err := e.ReissueOTP(s); !errors.Is(err, ErrNoPendingOTP) {
		t.Fatalf("expected ErrNoPendingOTP, got %v", err)
	}
	if s.HasPendingOTP() {
		t.Fatal("expected no otp issued")
	}
}

func TestSecurityAnswer(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()

	if e.VerifySecurityAnswer(s, "red") {
		t.Fatal("expected false before an answer is set")
	}

	if err := e.SetSecurityAnswer(s, "Red"); err != nil {
		t.Fatalf("SetSecurityAnswer error: %v", err)
	}
	if !e.VerifySecurityAnswer(s, " red ") {
		t.Fatal("expected normalized answer to match")
	}
	if e.VerifySecurityAnswer(s, "blue") {
		t.Fatal("expected wrong answer to fail")
	}
	if s.LoginAttempts != 0 || s.AccountStatus != entity.StatusActive {
		t.Fatalf("expected no side effects, got %+v", s)
	}
}

func TestSetSecurityAnswerEmpty(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	if err := e.SetSecurityAnswer(s, "   "); err == nil {
		t.Fatal("expected error for blank answer")
	}
}

func TestRecordFailedLoginLocksAtMax(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()

	for i := 1; i <= 2; i++ {
		got := e.RecordFailedLogin(s)
		if got.Locked || got.JustLocked {
			t.Fatalf("attempt %d: unexpected lock %+v", i, got)
		}
		if got.Attempts != i || !got.Notify {
			t.Fatalf("attempt %d: unexpected outcome %+v", i, got)
		}
	}
	if s.LastFailedLogin == nil || !s.LastFailedLogin.Equal(clock.now) {
		t.Fatalf("expected last failed login stamped, got %v", s.LastFailedLogin)
	}

	got := e.RecordFailedLogin(s)
	if !got.Locked || !got.JustLocked || got.Attempts != 3 {
		t.Fatalf("attempt 3: expected lock, got %+v", got)
	}
	if s.AccountStatus != entity.StatusLocked {
		t.Fatalf("expected locked status, got %s", s.AccountStatus)
	}

	got = e.RecordFailedLogin(s)
	if !got.Locked || got.JustLocked || got.Attempts != 4 {
		t.Fatalf("attempt 4: unexpected outcome %+v", got)
	}
}

func TestRecordFailedLoginNotifyOnlyOnLock(t *testing.T) {
	policy := DefaultPolicy()
	policy.NotifyEveryFailure = false
	e, _ := newTestEngine(t, policy)
	s := activeState()

	notified := 0
	for i := 0; i < 4; i++ {
		if e.RecordFailedLogin(s).Notify {
			notified++
		}
	}
	if notified != 1 {
		t.Fatalf("expected exactly one notice, got %d", notified)
	}
}

func TestRecordSuccessfulLogin(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	e.RecordFailedLogin(s)
	e.RecordFailedLogin(s)
	e.RecordFailedLogin(s)

	e.RecordSuccessfulLogin(s)
	if s.LoginAttempts != 0 || s.LastFailedLogin != nil || s.AccountStatus != entity.StatusActive {
		t.Fatalf("expected reset state, got %+v", s)
	}
}

func TestUnlockAccount(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	for i := 0; i < 3; i++ {
		e.RecordFailedLogin(s)
	}

	if !e.UnlockAccount(s) {
		t.Fatal("expected unlock to change state")
	}
	if s.AccountStatus != entity.StatusActive || s.LoginAttempts != 0 || s.LastFailedLogin != nil {
		t.Fatalf("expected cleared lockout, got %+v", s)
	}
	if e.UnlockAccount(s) {
		t.Fatal("expected second unlock to be a no-op")
	}
}

func TestUnlockAccountActiveIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	e.RecordFailedLogin(s)
	before := *s.LastFailedLogin

	if e.UnlockAccount(s) {
		t.Fatal("expected no-op on active account")
	}
	if s.LoginAttempts != 1 || s.LastFailedLogin == nil || !s.LastFailedLogin.Equal(before) {
		t.Fatalf("expected state untouched, got %+v", s)
	}
}

// The literal lockout check preserves the historical behaviour, which looks
// inverted. These tests pin it so a switch to CheckIntended is a deliberate
// decision.
func TestCheckLockoutLiteral_ActiveWithoutFailureReportsLocked(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()

	if got := e.CheckLockoutLiteral(s); !got.Locked || got.UnlockDue {
		t.Fatalf("literal: expected locked, got %+v", got)
	}
}

func TestCheckLockoutLiteral_ActiveWithRecentFailureReportsLocked(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()
	e.RecordFailedLogin(s)
	clock.Advance(time.Hour)

	if got := e.CheckLockoutLiteral(s); !got.Locked {
		t.Fatalf("literal: expected locked, got %+v", got)
	}
}

func TestCheckLockoutLiteral_ActiveWithOldFailureReportsUnlocked(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()
	e.RecordFailedLogin(s)
	clock.Advance(24*time.Hour + time.Second)

	got := e.CheckLockoutLiteral(s)
	if got.Locked || got.UnlockDue {
		t.Fatalf("literal: expected unlocked without unlock, got %+v", got)
	}
	if s.LoginAttempts != 1 {
		t.Fatalf("literal: expected no mutation, got %+v", s)
	}
}

func TestCheckLockoutLiteral_LockedReportsUnlocked(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	for i := 0; i < 3; i++ {
		e.RecordFailedLogin(s)
	}

	got := e.CheckLockoutLiteral(s)
	if got.Locked || got.UnlockDue {
		t.Fatalf("literal: expected unlocked, got %+v", got)
	}
	if s.AccountStatus != entity.StatusLocked {
		t.Fatal("literal: expected no mutation")
	}
}

func TestCheckLockoutIntended_ActiveNotLocked(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := activeState()
	e.RecordFailedLogin(s)

	if got := e.CheckLockoutIntended(s); got.Locked || got.UnlockDue {
		t.Fatalf("intended: expected unlocked, got %+v", got)
	}
}

func TestCheckLockoutIntended_LockedWithinWindow(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()
	for i := 0; i < 3; i++ {
		e.RecordFailedLogin(s)
	}
	clock.Advance(23 * time.Hour)

	if got := e.CheckLockoutIntended(s); !got.Locked || got.UnlockDue {
		t.Fatalf("intended: expected locked, got %+v", got)
	}
}

func TestCheckLockoutIntended_LockedAfterWindowUnlocks(t *testing.T) {
	e, clock := newTestEngine(t, DefaultPolicy())
	s := activeState()
	for i := 0; i < 3; i++ {
		e.RecordFailedLogin(s)
	}
	clock.Advance(24*time.Hour + time.Second)

	got := e.CheckLockoutIntended(s)
	if got.Locked || !got.UnlockDue {
		t.Fatalf("intended: expected unlock due, got %+v", got)
	}
	if !e.UnlockAccount(s) {
		t.Fatal("intended: expected unlock to apply")
	}
}

func TestCheckLockoutIntended_LockedWithoutFailureTimeStaysLocked(t *testing.T) {
	e, _ := newTestEngine(t, DefaultPolicy())
	s := &entity.SecurityState{AccountStatus: entity.StatusLocked}

	if got := e.CheckLockoutIntended(s); !got.Locked || got.UnlockDue {
		t.Fatalf("intended: expected locked, got %+v", got)
	}
}

func TestCheckLockoutDispatchesOnMode(t *testing.T) {
	policy := DefaultPolicy()
	literal, _ := newTestEngine(t, policy)
	policy.LockoutCheck = CheckIntended
	intended, _ := newTestEngine(t, policy)

	s := activeState()
	if !literal.CheckLockout(s).Locked {
		t.Fatal("literal mode: expected locked")
	}
	if intended.CheckLockout(s).Locked {
		t.Fatal("intended mode: expected unlocked")
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	broken := []func(*Policy){
		func(p *Policy) { p.OTPLifetime = 0 },
		func(p *Policy) { p.MaxOTPAttempts = 0 },
		func(p *Policy) { p.MaxLoginAttempts = 0 },
		func(p *Policy) { p.LockoutDuration = -time.Second },
		func(p *Policy) { p.LockoutCheck = "sometimes" },
	}
	for i, mutate := range broken {
		p := DefaultPolicy()
		mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
