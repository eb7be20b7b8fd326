package entity

import (
	"time"

	"github.com/google/uuid"
)

type PartyType string

const (
	PartyIndividual PartyType = "individual"
	PartyLegal      PartyType = "legal"
)

// Party is the owner of rights: an individual or a legal entity that one or
// more users act for.
type Party struct {
	BaseNoDelete
	PartyType             PartyType  `db:"party_type"`
	IdentificationNumber  *string    `db:"identification_number"`
	TaxID                 *string    `db:"tax_id"`
	CountryOfRegistration *string    `db:"country_of_registration"`
	VerifiedAt            *time.Time `db:"verified_at"`
	VerifiedBy            *uuid.UUID `db:"verified_by"`
}

type PartyRole string

const (
	PartyRoleOwner     PartyRole = "OWNER"
	PartyRoleSignatory PartyRole = "SIGNATORY"
	PartyRoleViewer    PartyRole = "VIEWER"
)

// PartyUserRole links a user to a party; (party, user, role) is unique.
type PartyUserRole struct {
	ID        uuid.UUID  `db:"id"`
	PartyID   uuid.UUID  `db:"party_id"`
	UserID    uuid.UUID  `db:"user_id"`
	Role      PartyRole  `db:"role"`
	IsActive  bool       `db:"is_active"`
	ValidFrom time.Time  `db:"valid_from"`
	ValidTo   *time.Time `db:"valid_to"`
}

// PartyMembership is a party as seen from one of its users.
type PartyMembership struct {
	Party Party
	Role  PartyUserRole
}
