package response

import (
	"time"

	"bank-backoffice/internal/data/entity"
)

type PartyResponse struct {
	ID                   string           `json:"id"`
	PartyType            entity.PartyType `json:"party_type"`
	IdentificationNumber *string          `json:"identification_number,omitempty"`
	Role                 entity.PartyRole `json:"role"`
	IsActive             bool             `json:"is_active"`
	Verified             bool             `json:"verified"`
	ValidFrom            time.Time        `json:"valid_from"`
}

func PartyToResponse(m entity.PartyMembership) PartyResponse {
	return PartyResponse{
		ID:                   m.Party.ID.String(),
		PartyType:            m.Party.PartyType,
		IdentificationNumber: m.Party.IdentificationNumber,
		Role:                 m.Role.Role,
		IsActive:             m.Role.IsActive,
		Verified:             m.Party.VerifiedAt != nil,
		ValidFrom:            m.Role.ValidFrom,
	}
}
