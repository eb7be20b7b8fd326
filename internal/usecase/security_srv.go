package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bank-backoffice/internal/data/entity"
	"bank-backoffice/internal/data/repository"
	"bank-backoffice/internal/dto/request"
	"bank-backoffice/internal/dto/response"
	"bank-backoffice/internal/security"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockoutNotice is handed to the notifier after a failed login was committed.
type LockoutNotice struct {
	UserID     uuid.UUID
	Email      string
	FullName   string
	Attempts   int
	Locked     bool
	OccurredAt time.Time
}

type LockoutNotifier interface {
	NotifyLockout(ctx context.Context, notice LockoutNotice) error
}

// IssuedOTP carries the plaintext code to the delivery channel. It is never
// stored or logged.
type IssuedOTP struct {
	User      *entity.User
	Code      string
	ExpiresAt time.Time
}

// SecurityService runs the security engine against the stored user row.
// Every mutation is one locked read-modify-write, so concurrent attempts on
// the same user are serialized. Denials are reported as false; errors mean
// the store or identity was unavailable.
type SecurityService interface {
	IssueOTP(ctx context.Context, userID uuid.UUID) (*IssuedOTP, error)
	ReissueOTP(ctx context.Context, userID uuid.UUID) (*IssuedOTP, error)
	VerifyOTP(ctx context.Context, userID uuid.UUID, code string) (bool, error)
	SetSecurityAnswer(ctx context.Context, userID uuid.UUID, question entity.SecurityQuestion, answer string) error
	VerifySecurityAnswer(ctx context.Context, userID uuid.UUID, answer string) (bool, error)
	RecordFailedLogin(ctx context.Context, userID uuid.UUID) (security.FailedLogin, error)
	RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID) error
	IsLockedOut(ctx context.Context, userID uuid.UUID) (bool, error)
	UnlockAccount(ctx context.Context, userID uuid.UUID) (bool, error)
	ListLocked(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.LockedAccountResponse], error)
}

type securityService struct {
	repo     *repository.Repository
	engine   *security.Engine
	notifier LockoutNotifier
	log      *zap.Logger

	notifyTimeout time.Duration
}

func NewSecurityService(
	repo *repository.Repository,
	engine *security.Engine,
	notifier LockoutNotifier,
	log *zap.Logger,
) SecurityService {
	return &securityService{
		repo:          repo,
		engine:        engine,
		notifier:      notifier,
		log:           log.With(zap.String("service", "security")),
		notifyTimeout: 30 * time.Second,
	}
}

func (s *securityService) IssueOTP(ctx context.Context, userID uuid.UUID) (*IssuedOTP, error) {
	var code string
	user, err := s.mutate(ctx, userID, func(u *entity.User) error {
		c, err := s.engine.IssueOTP(&u.Security)
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("OTP issued",
		zap.String("user_id", userID.String()),
		zap.Time("expires_at", *user.Security.OTPExpiry),
	)

	return &IssuedOTP{User: user, Code: code, ExpiresAt: *user.Security.OTPExpiry}, nil
}

// ReissueOTP replaces a pending code without resetting its attempt counter.
// It fails with security.ErrNoPendingOTP when nothing is pending.
func (s *securityService) ReissueOTP(ctx context.Context, userID uuid.UUID) (*IssuedOTP, error) {
	var code string
	user, err := s.mutate(ctx, userID, func(u *entity.User) error {
		c, err := s.engine.ReissueOTP(&u.Security)
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("OTP reissued",
		zap.String("user_id", userID.String()),
		zap.Int("otp_attempts", user.Security.OTPAttempts),
		zap.Time("expires_at", *user.Security.OTPExpiry),
	)

	return &IssuedOTP{User: user, Code: code, ExpiresAt: *user.Security.OTPExpiry}, nil
}

func (s *securityService) VerifyOTP(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	var result security.OTPResult
	user, err := s.mutate(ctx, userID, func(u *entity.User) error {
		result = s.engine.VerifyOTP(&u.Security, code)
		return nil
	})
	if err != nil {
		return false, err
	}

	if result != security.OTPAccepted {
		s.log.Warn("OTP rejected",
			zap.String("user_id", userID.String()),
			zap.Stringer("reason", result),
			zap.Int("otp_attempts", user.Security.OTPAttempts),
		)
		return false, nil
	}

	s.log.Info("OTP accepted", zap.String("user_id", userID.String()))
	return true, nil
}

func (s *securityService) SetSecurityAnswer(ctx context.Context, userID uuid.UUID, question entity.SecurityQuestion, answer string) error {
	_, err := s.mutate(ctx, userID, func(u *entity.User) error {
		if question != "" {
			u.Security.SecurityQuestion = question
		}
		return s.engine.SetSecurityAnswer(&u.Security, answer)
	})
	if err != nil {
		return err
	}

	s.log.Info("Security answer changed", zap.String("user_id", userID.String()))
	return nil
}

func (s *securityService) VerifySecurityAnswer(ctx context.Context, userID uuid.UUID, answer string) (bool, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}

	if !s.engine.VerifySecurityAnswer(&user.Security, answer) {
		s.log.Warn("Security answer rejected", zap.String("user_id", userID.String()))
		return false, nil
	}
	return true, nil
}

// RecordFailedLogin counts the failure and, once the row is committed,
// dispatches the lockout notice in the background. Notifier failures never
// reach the caller.
func (s *securityService) RecordFailedLogin(ctx context.Context, userID uuid.UUID) (security.FailedLogin, error) {
	var outcome security.FailedLogin
	user, err := s.mutate(ctx, userID, func(u *entity.User) error {
		outcome = s.engine.RecordFailedLogin(&u.Security)
		return nil
	})
	if err != nil {
		return security.FailedLogin{}, err
	}

	s.log.Warn("Failed login recorded",
		zap.String("user_id", userID.String()),
		zap.Int("login_attempts", outcome.Attempts),
		zap.Bool("locked", outcome.Locked),
	)

	if outcome.JustLocked {
		s.log.Warn("Account locked", zap.String("user_id", userID.String()))
		if err := s.repo.Session.RevokeAllUserSessions(ctx, userID); err != nil {
			s.log.Error("Failed to revoke sessions of locked account",
				zap.Error(err),
				zap.String("user_id", userID.String()),
			)
		}
	}

	if outcome.Notify && s.notifier != nil {
		notice := LockoutNotice{
			UserID:     user.ID,
			Email:      user.Email,
			FullName:   user.FullName(),
			Attempts:   outcome.Attempts,
			Locked:     outcome.Locked,
			OccurredAt: *user.Security.LastFailedLogin,
		}
		go s.notify(context.WithoutCancel(ctx), notice)
	}

	return outcome, nil
}

func (s *securityService) notify(ctx context.Context, notice LockoutNotice) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyLockout(ctx, notice); err != nil {
		s.log.Error("Failed to send lockout notice",
			zap.Error(err),
			zap.String("user_id", notice.UserID.String()),
		)
	}
}

func (s *securityService) RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := s.mutate(ctx, userID, func(u *entity.User) error {
		s.engine.RecordSuccessfulLogin(&u.Security)
		return nil
	})
	return err
}

// IsLockedOut evaluates the lockout guard. When the lockout has run out the
// unlock is persisted under the row lock and the guard re-evaluated there,
// so a failure recorded in between is not overwritten.
func (s *securityService) IsLockedOut(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}

	check := s.engine.CheckLockout(&user.Security)
	if !check.UnlockDue {
		return check.Locked, nil
	}

	var locked bool
	_, err = s.mutate(ctx, userID, func(u *entity.User) error {
		c := s.engine.CheckLockout(&u.Security)
		if c.UnlockDue {
			s.engine.UnlockAccount(&u.Security)
		}
		locked = c.Locked
		return nil
	})
	if err != nil {
		return false, err
	}

	if !locked {
		s.log.Info("Lockout expired, account unlocked", zap.String("user_id", userID.String()))
	}
	return locked, nil
}

func (s *securityService) UnlockAccount(ctx context.Context, userID uuid.UUID) (bool, error) {
	var changed bool
	_, err := s.mutate(ctx, userID, func(u *entity.User) error {
		changed = s.engine.UnlockAccount(&u.Security)
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.log.Info("Account unlocked", zap.String("user_id", userID.String()))
	}
	return changed, nil
}

func (s *securityService) ListLocked(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.LockedAccountResponse], error) {
	// Set defaults
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	users, err := s.repo.Security.FindLocked(ctx, req.PerPage, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", security.ErrStoreUnavailable, err)
	}

	total, err := s.repo.Security.CountLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", security.ErrStoreUnavailable, err)
	}

	data := make([]response.LockedAccountResponse, 0, len(users))
	for _, u := range users {
		data = append(data, response.LockedAccountToResponse(u))
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

// ==================== HELPER METHODS ====================

func (s *securityService) load(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.Security.Load(ctx, userID)
	if err != nil {
		return nil, s.storeError(userID, err, nil)
	}
	return user, nil
}

func (s *securityService) mutate(ctx context.Context, userID uuid.UUID, fn repository.MutateFunc) (*entity.User, error) {
	var fnErr error
	user, err := s.repo.Security.Mutate(ctx, userID, func(u *entity.User) error {
		fnErr = fn(u)
		return fnErr
	})
	if err != nil {
		return nil, s.storeError(userID, err, fnErr)
	}
	return user, nil
}

// storeError maps repository failures onto the security package errors.
// Errors raised by the state transition itself pass through unchanged.
func (s *securityService) storeError(userID uuid.UUID, err, fnErr error) error {
	switch {
	case errors.Is(fnErr, security.ErrNoPendingOTP):
		s.log.Warn("No pending OTP to replace", zap.String("user_id", userID.String()))
		return fnErr
	case fnErr != nil:
		s.log.Error("Security state transition failed", zap.Error(fnErr), zap.String("user_id", userID.String()))
		return fnErr
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", security.ErrIdentityNotFound, userID.String())
	default:
		s.log.Error("Security state store failed", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("%w: %v", security.ErrStoreUnavailable, err)
	}
}
