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
	"bank-backoffice/pkg/secret"
	"bank-backoffice/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OTPSender delivers an issued code to its user.
type OTPSender interface {
	SendOTP(ctx context.Context, otp *IssuedOTP) error
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.OTPChallengeResponse, error)
	VerifyLoginOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.AuthResponse, error)
	ResendOTP(ctx context.Context, req *request.ResendOTPRequest) (*response.OTPChallengeResponse, error)
	SecurityQuestion(ctx context.Context, email string) (*response.SecurityQuestionResponse, error)
	VerifySecurityAnswer(ctx context.Context, req *request.VerifySecurityAnswerRequest) error
	SetSecurityAnswer(ctx context.Context, userID uuid.UUID, req *request.SetSecurityAnswerRequest) error
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	Parties(ctx context.Context, userID uuid.UUID) ([]response.PartyResponse, error)
}

type txFunc func(ctx context.Context, fn func(tx *repository.Repository) error) error

type authService struct {
	repo     *repository.Repository // grouping user, party, & session repos
	security SecurityService
	hasher   secret.Hasher
	sender   OTPSender
	config   *utils.Config
	log      *zap.Logger

	withTx txFunc
	now    func() time.Time
}

func NewAuthService(
	repo *repository.Repository,
	security SecurityService,
	hasher secret.Hasher,
	sender OTPSender,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		security: security,
		hasher:   hasher,
		sender:   sender,
		config:   config,
		log:      log.With(zap.String("service", "auth")),
		withTx:   repo.WithTx,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error) {
	// 1. Validasi input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Cek email & id number sudah terdaftar
	existing, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.repo.User.FindByIDNumber(ctx, req.IDNumber)
	if err != nil {
		return nil, fmt.Errorf("check id number: %w", err)
	}
	if existing != nil {
		return nil, ErrIDNumberTaken
	}

	// 3. Hash password & security answer
	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}
	answerHash, err := secret.HashAnswer(s.hasher, req.SecurityAnswer)
	if err != nil {
		s.log.Error("Failed to hash security answer", zap.Error(err))
		return nil, fmt.Errorf("hash security answer: %w", err)
	}

	username, err := utils.GenerateUsername(s.config.Bank.Name)
	if err != nil {
		return nil, fmt.Errorf("generate username: %w", err)
	}

	// 4. Create user entity
	now := s.now()
	user := &entity.User{
		Base: entity.NewBase(now),
		Credentials: entity.Credentials{
			Username:     username,
			Email:        req.Email,
			PasswordHash: passwordHash,
			IsActive:     true,
		},
		Profile: entity.Profile{
			FirstName:  req.FirstName,
			MiddleName: req.MiddleName,
			LastName:   req.LastName,
			IDNumber:   req.IDNumber,
			Role:       entity.RoleCustomer,
		},
		Security: entity.SecurityState{
			AccountStatus:      entity.StatusActive,
			SecurityQuestion:   entity.SecurityQuestion(req.SecurityQuestion),
			SecurityAnswerHash: answerHash,
		},
	}

	// Every user starts as the owner of an individual party
	party := &entity.Party{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PartyType:    entity.PartyIndividual,
	}
	owner := &entity.PartyUserRole{
		ID:        uuid.New(),
		PartyID:   party.ID,
		UserID:    user.ID,
		Role:      entity.PartyRoleOwner,
		IsActive:  true,
		ValidFrom: now,
	}

	// 5. Save user & party dalam satu transaksi
	err = s.withTx(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		return tx.Party.CreateWithOwner(ctx, party, owner)
	})
	if err != nil {
		s.log.Error("Failed to create account", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("party_id", party.ID.String()),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

// Login checks the password and, when it matches, sends an OTP. The session
// is only created by VerifyLoginOTP.
func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.OTPChallengeResponse, error) {
	// 1. Validasi
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// 2. Find user
	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.log.Warn("Login for unknown email")
		return nil, ErrInvalidCredentials
	}

	// 3. Lockout guard
	locked, err := s.security.IsLockedOut(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		// same answer as a wrong password, the lock stays server side
		s.log.Warn("Login refused, account locked",
			zap.String("user_id", user.ID.String()),
			zap.String("lockout_check", s.config.Security.LockoutCheckMode),
		)
		return nil, ErrInvalidCredentials
	}

	// 4. Check password
	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		s.log.Error("Stored password hash unreadable", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		if _, recErr := s.security.RecordFailedLogin(ctx, user.ID); recErr != nil {
			return nil, recErr
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, ErrAccountInactive
	}

	// 5. Reset counter & kirim OTP
	if err := s.security.RecordSuccessfulLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	return s.issueAndSend(ctx, user.ID)
}

func (s *authService) VerifyLoginOTP(ctx context.Context, req *request.VerifyOTPRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrVerificationFailed
	}

	ok, err := s.security.VerifyOTP(ctx, user.ID, req.OTP)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVerificationFailed
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

// ResendOTP replaces the code of a user who is still in the OTP step.
func (s *authService) ResendOTP(ctx context.Context, req *request.ResendOTPRequest) (*response.OTPChallengeResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !user.IsActive || user.Security.AccountStatus == entity.StatusLocked {
		return nil, ErrVerificationFailed
	}

	locked, err := s.security.IsLockedOut(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		s.log.Warn("OTP resend refused, account locked", zap.String("user_id", user.ID.String()))
		return nil, ErrVerificationFailed
	}

	// the attempt counter of the pending code carries over
	issued, err := s.security.ReissueOTP(ctx, user.ID)
	if errors.Is(err, security.ErrNoPendingOTP) {
		return nil, ErrVerificationFailed
	}
	if err != nil {
		return nil, err
	}

	return s.sendOTP(ctx, issued)
}

func (s *authService) SecurityQuestion(ctx context.Context, email string) (*response.SecurityQuestionResponse, error) {
	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || user.Security.SecurityQuestion == "" {
		return nil, ErrNotFound
	}

	q := user.Security.SecurityQuestion
	return &response.SecurityQuestionResponse{Question: string(q), Prompt: q.Prompt()}, nil
}

func (s *authService) VerifySecurityAnswer(ctx context.Context, req *request.VerifySecurityAnswerRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return ErrVerificationFailed
	}

	ok, err := s.security.VerifySecurityAnswer(ctx, user.ID, req.Answer)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerificationFailed
	}
	return nil
}

func (s *authService) SetSecurityAnswer(ctx context.Context, userID uuid.UUID, req *request.SetSecurityAnswerRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	return s.security.SetSecurityAnswer(ctx, userID, entity.SecurityQuestion(req.Question), req.Answer)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	// 1. Parse token
	if _, err := uuid.Parse(token); err != nil {
		return fmt.Errorf("%w: invalid token format", ErrValidation)
	}

	// 2. Revoke session
	if err := s.repo.Session.Revoke(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.log.Info("User logged out")
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Parties(ctx context.Context, userID uuid.UUID) ([]response.PartyResponse, error) {
	memberships, err := s.repo.Party.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}

	parties := make([]response.PartyResponse, 0, len(memberships))
	for _, m := range memberships {
		parties = append(parties, response.PartyToResponse(m))
	}
	return parties, nil
}

// ==================== HELPER METHODS ====================

func (s *authService) issueAndSend(ctx context.Context, userID uuid.UUID) (*response.OTPChallengeResponse, error) {
	issued, err := s.security.IssueOTP(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.sendOTP(ctx, issued)
}

func (s *authService) sendOTP(ctx context.Context, issued *IssuedOTP) (*response.OTPChallengeResponse, error) {
	userID := issued.User.ID
	if s.config.App.Debug {
		s.log.Debug("OTP for local development",
			zap.String("email", issued.User.Email),
			zap.String("otp_code", issued.Code),
		)
	}

	if err := s.sender.SendOTP(ctx, issued); err != nil {
		s.log.Error("Failed to queue OTP email", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return &response.OTPChallengeResponse{
		Email:        issued.User.Email,
		OTPExpiresAt: issued.ExpiresAt,
	}, nil
}

func (s *authService) createSession(ctx context.Context, userID uuid.UUID) (*entity.Session, error) {
	now := s.now()
	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:    userID,
		Token:     utils.GenerateSessionToken(),
		ExpiresAt: now.Add(s.config.Session.TTL),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
