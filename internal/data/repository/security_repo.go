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

// MutateFunc changes user.Security in place. Returning an error aborts the
// transaction and nothing is persisted.
type MutateFunc func(user *entity.User) error

// SecurityRepository persists the security columns of a user row. Mutate is
// a read-modify-write under SELECT ... FOR UPDATE, so concurrent callers on
// the same user are serialized and no update is lost.
type SecurityRepository interface {
	Load(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*entity.User, error)
	FindLocked(ctx context.Context, limit, offset int) ([]*entity.User, error)
	CountLocked(ctx context.Context) (int64, error)
}

type securityRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewSecurityRepository(db database.DBTX, log *zap.Logger) SecurityRepository {
	return &securityRepository{
		db:  db,
		log: log.With(zap.String("repository", "security")),
	}
}

func (r *securityRepository) Load(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.log.Error("Failed to load security state",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("load security state %s: %w", userID.String(), err)
	}

	return user, nil
}

func (r *securityRepository) Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*entity.User, error) {
	var user *entity.User

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// 1. Lock the row for the rest of the transaction
		query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
		locked, err := scanUser(tx.QueryRow(ctx, query, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock security state %s: %w", userID.String(), err)
		}

		// 2. Apply the state transition
		if err := fn(locked); err != nil {
			return err
		}

		// 3. Persist every security column in one statement
		update := `
			UPDATE users
			SET otp_hash = $2, otp_expiry = $3, otp_attempts = $4,
			    login_attempts = $5, last_failed_login = $6, account_status = $7,
			    security_question = $8, security_answer = $9,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		s := locked.Security
		if err := tx.QueryRow(ctx, update,
			locked.ID,
			s.OTPHash,
			s.OTPExpiry,
			s.OTPAttempts,
			s.LoginAttempts,
			s.LastFailedLogin,
			s.AccountStatus,
			s.SecurityQuestion,
			s.SecurityAnswerHash,
		).Scan(&locked.UpdatedAt); err != nil {
			return fmt.Errorf("persist security state %s: %w", userID.String(), err)
		}

		user = locked
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Warn("Security state mutation aborted",
				zap.Error(err),
				zap.String("user_id", userID.String()),
			)
		}
		return nil, err
	}

	return user, nil
}

// FindLocked lists accounts whose status is locked, most recent failure first.
func (r *securityRepository) FindLocked(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE account_status = $1 AND deleted_at IS NULL
		ORDER BY last_failed_login DESC NULLS LAST
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, entity.StatusLocked, limit, offset)
	if err != nil {
		r.log.Error("Failed to list locked accounts",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find locked users limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.log.Error("Failed to scan locked user row", zap.Error(err))
			return nil, fmt.Errorf("scan locked user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate locked users rows: %w", err)
	}

	return users, nil
}

func (r *securityRepository) CountLocked(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE account_status = $1 AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query, entity.StatusLocked).Scan(&count); err != nil {
		r.log.Error("Database error counting locked users", zap.Error(err))
		return 0, fmt.Errorf("count locked users: %w", err)
	}

	return count, nil
}
