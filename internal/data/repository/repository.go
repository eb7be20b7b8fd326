package repository

import (
	"context"
	"errors"

	"bank-backoffice/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("record not found")

type Repository struct {
	db  database.DBTX
	log *zap.Logger

	User     UserRepository
	Security SecurityRepository
	Party    PartyRepository
	Session  SessionRepository
}

func NewRepository(db database.DBTX, log *zap.Logger) *Repository {
	return &Repository{
		db:       db,
		log:      log,
		User:     NewUserRepository(db, log),
		Security: NewSecurityRepository(db, log),
		Party:    NewPartyRepository(db, log),
		Session:  NewSessionRepository(db, log),
	}
}

// WithTx runs fn with repositories bound to a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(NewRepository(tx, r.log))
	})
}
