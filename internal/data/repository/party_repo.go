package repository

import (
	"context"
	"fmt"

	"bank-backoffice/internal/data/entity"
	"bank-backoffice/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PartyRepository interface {
	CreateWithOwner(ctx context.Context, party *entity.Party, owner *entity.PartyUserRole) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.PartyMembership, error)
}

type partyRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewPartyRepository(db database.DBTX, log *zap.Logger) PartyRepository {
	return &partyRepository{
		db:  db,
		log: log.With(zap.String("repository", "party")),
	}
}

// CreateWithOwner inserts the party and its first role link. Run it inside
// Repository.WithTx so the pair lands together with the user row.
func (r *partyRepository) CreateWithOwner(ctx context.Context, party *entity.Party, owner *entity.PartyUserRole) error {
	insertParty := `
		INSERT INTO parties (id, party_type, identification_number, tax_id,
		                     country_of_registration, verified_at, verified_by,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.Exec(ctx, insertParty,
		party.ID,
		party.PartyType,
		party.IdentificationNumber,
		party.TaxID,
		party.CountryOfRegistration,
		party.VerifiedAt,
		party.VerifiedBy,
		party.CreatedAt,
		party.UpdatedAt,
	); err != nil {
		r.log.Error("Failed to create party",
			zap.Error(err),
			zap.String("party_id", party.ID.String()),
		)
		return fmt.Errorf("create party %s: %w", party.ID.String(), err)
	}

	insertRole := `
		INSERT INTO party_user_roles (id, party_id, user_id, role, is_active, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.Exec(ctx, insertRole,
		owner.ID,
		owner.PartyID,
		owner.UserID,
		owner.Role,
		owner.IsActive,
		owner.ValidFrom,
		owner.ValidTo,
	); err != nil {
		r.log.Error("Failed to create party role",
			zap.Error(err),
			zap.String("party_id", owner.PartyID.String()),
			zap.String("user_id", owner.UserID.String()),
		)
		return fmt.Errorf("create party role for user %s: %w", owner.UserID.String(), err)
	}

	return nil
}

func (r *partyRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]entity.PartyMembership, error) {
	query := `
		SELECT p.id, p.party_type, p.identification_number, p.tax_id,
		       p.country_of_registration, p.verified_at, p.verified_by,
		       p.created_at, p.updated_at,
		       r.id, r.party_id, r.user_id, r.role, r.is_active, r.valid_from, r.valid_to
		FROM party_user_roles r
		JOIN parties p ON p.id = r.party_id
		WHERE r.user_id = $1
		ORDER BY r.valid_from
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list parties", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find parties for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var memberships []entity.PartyMembership
	for rows.Next() {
		var m entity.PartyMembership
		if err := rows.Scan(
			&m.Party.ID,
			&m.Party.PartyType,
			&m.Party.IdentificationNumber,
			&m.Party.TaxID,
			&m.Party.CountryOfRegistration,
			&m.Party.VerifiedAt,
			&m.Party.VerifiedBy,
			&m.Party.CreatedAt,
			&m.Party.UpdatedAt,
			&m.Role.ID,
			&m.Role.PartyID,
			&m.Role.UserID,
			&m.Role.Role,
			&m.Role.IsActive,
			&m.Role.ValidFrom,
			&m.Role.ValidTo,
		); err != nil {
			r.log.Error("Failed to scan party row", zap.Error(err))
			return nil, fmt.Errorf("scan party row: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate party rows: %w", err)
	}

	return memberships, nil
}
