package repository

import (
	"context"
	"errors"
	"fmt"

	"bank-backoffice/internal/data/entity"
	"bank-backoffice/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = `
	id, username, email, password, is_active,
	first_name, middle_name, last_name, id_number, role,
	otp_hash, otp_expiry, otp_attempts, login_attempts, last_failed_login,
	account_status, security_question, security_answer,
	created_at, updated_at, deleted_at`

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByIDNumber(ctx context.Context, idNumber string) (*entity.User, error)
}

type userRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewUserRepository(db database.DBTX, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

// scanUser reads one row selected with userColumns.
func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&u.FirstName,
		&u.MiddleName,
		&u.LastName,
		&u.IDNumber,
		&u.Role,
		&u.Security.OTPHash,
		&u.Security.OTPExpiry,
		&u.Security.OTPAttempts,
		&u.Security.LoginAttempts,
		&u.Security.LastFailedLogin,
		&u.Security.AccountStatus,
		&u.Security.SecurityQuestion,
		&u.Security.SecurityAnswerHash,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user record including its initial security state
func (ur *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, username, email, password, is_active,
		                   first_name, middle_name, last_name, id_number, role,
		                   otp_hash, otp_expiry, otp_attempts, login_attempts, last_failed_login,
		                   account_status, security_question, security_answer,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.FirstName,
		user.MiddleName,
		user.LastName,
		user.IDNumber,
		user.Role,
		user.Security.OTPHash,
		user.Security.OTPExpiry,
		user.Security.OTPAttempts,
		user.Security.LoginAttempts,
		user.Security.LastFailedLogin,
		user.Security.AccountStatus,
		user.Security.SecurityQuestion,
		user.Security.SecurityAnswerHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		ur.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.String("username", user.Username),
		)
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}

	return nil
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	user, err := scanUser(ur.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id.String(), err)
	}

	return user, nil
}

func (ur *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL`

	user, err := scanUser(ur.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by email",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find user by email %s: %w", email, err)
	}

	return user, nil
}

func (ur *userRepository) FindByIDNumber(ctx context.Context, idNumber string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id_number = $1 AND deleted_at IS NULL`

	user, err := scanUser(ur.db.QueryRow(ctx, query, idNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID number", zap.Error(err))
		return nil, fmt.Errorf("find user by id number: %w", err)
	}

	return user, nil
}
